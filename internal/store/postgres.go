package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veritel/internal/domain"
	"veritel/pkg/requestcontext"
)

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection and verifies it with a ping.
func Connect(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool (integration tests).
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Pool exposes the underlying pool for migrations and health checks.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

// Health checks database connectivity.
func (p *Postgres) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) FindOrganization(ctx context.Context, taxID string) (*domain.Organization, error) {
	var org domain.Organization
	err := p.pool.QueryRow(ctx, `
		SELECT tax_id, name, vat_status, trust_score, risk_level, COALESCE(raw_payload, 'null'::jsonb), last_updated
		FROM organizations
		WHERE tax_id = $1
	`, taxID).Scan(&org.TaxID, &org.Name, &org.VATStatus, &org.TrustScore, &org.RiskLevel, &org.RawPayload, &org.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}

	phones, err := p.phonesForOrg(ctx, taxID)
	if err != nil {
		return nil, err
	}
	org.Phones = phones
	return &org, nil
}

func (p *Postgres) UpsertOrganization(ctx context.Context, org *domain.Organization) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO organizations (tax_id, name, vat_status, trust_score, risk_level, raw_payload, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tax_id) DO UPDATE SET
			name = EXCLUDED.name,
			vat_status = EXCLUDED.vat_status,
			trust_score = EXCLUDED.trust_score,
			risk_level = EXCLUDED.risk_level,
			raw_payload = EXCLUDED.raw_payload,
			last_updated = EXCLUDED.last_updated
	`, org.TaxID, org.Name, org.VATStatus, org.TrustScore, org.RiskLevel, org.RawPayload, org.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	return nil
}

func (p *Postgres) FindPhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, error) {
	var phone domain.PhoneNumber
	err := p.pool.QueryRow(ctx, `
		SELECT number, country_code, trust_score, risk_level, org_tax_id, created_at
		FROM phone_numbers
		WHERE number = $1
	`, number).Scan(&phone.Number, &phone.CountryCode, &phone.TrustScore, &phone.RiskLevel, &phone.OrgTaxID, &phone.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find phone number: %w", err)
	}
	return &phone, nil
}

func (p *Postgres) UpsertPhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error {
	if phone.CreatedAt.IsZero() {
		phone.CreatedAt = requestcontext.Now(ctx)
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO phone_numbers (number, country_code, trust_score, risk_level, org_tax_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (number) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			trust_score = EXCLUDED.trust_score,
			risk_level = EXCLUDED.risk_level,
			org_tax_id = EXCLUDED.org_tax_id
	`, phone.Number, phone.CountryCode, phone.TrustScore, phone.RiskLevel, phone.OrgTaxID, phone.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert phone number: %w", err)
	}
	return nil
}

func (p *Postgres) LinkPhoneToOrganization(ctx context.Context, number, taxID string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO phone_numbers (number, trust_score, risk_level, org_tax_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (number) DO UPDATE SET org_tax_id = EXCLUDED.org_tax_id
	`, number, domain.DefaultTrustScore, domain.RiskNoData, taxID, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("link phone to organization: %w", err)
	}
	return nil
}

func (p *Postgres) FindPersonByName(ctx context.Context, name string) (*domain.Person, error) {
	var person domain.Person
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, trust_score, risk_level
		FROM persons
		WHERE name = $1
		ORDER BY id
		LIMIT 1
	`, name).Scan(&person.ID, &person.Name, &person.TrustScore, &person.RiskLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find person by name: %w", err)
	}
	return &person, nil
}

func (p *Postgres) EnsurePerson(ctx context.Context, name string) (*domain.Person, error) {
	person, err := p.FindPersonByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if person != nil {
		return person, nil
	}

	created := domain.Person{
		Name:       name,
		TrustScore: domain.DefaultTrustScore,
		RiskLevel:  domain.RiskNoData,
	}
	err = p.pool.QueryRow(ctx, `
		INSERT INTO persons (name, trust_score, risk_level)
		VALUES ($1, $2, $3)
		RETURNING id
	`, created.Name, created.TrustScore, created.RiskLevel).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return &created, nil
}

func (p *Postgres) CreateReport(ctx context.Context, report *domain.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = requestcontext.Now(ctx)
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO reports (
			id, rating, reason, comment, source_ip,
			org_tax_id, phone_number, person_id,
			reported_email, social_link, bank_account, screenshot_ref,
			raw_phone, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, report.ID, report.Rating, report.Reason, report.Comment, report.SourceIP,
		report.OrgTaxID, report.PhoneNumber, report.PersonID,
		report.ReportedEmail, report.SocialLink, report.BankAccount, report.ScreenshotRef,
		report.RawPhone, report.UserAgent, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (p *Postgres) FindReportsByOrganization(ctx context.Context, taxID string) ([]domain.Report, error) {
	return p.queryReports(ctx, `org_tax_id = $1`, taxID)
}

func (p *Postgres) FindReportsByPhone(ctx context.Context, number string) ([]domain.Report, error) {
	return p.queryReports(ctx, `phone_number = $1`, number)
}

func (p *Postgres) FindReportsByPerson(ctx context.Context, personID int64) ([]domain.Report, error) {
	if personID == 0 {
		return nil, nil
	}
	return p.queryReports(ctx, `person_id = $1`, personID)
}

func (p *Postgres) UpdateOrganizationScore(ctx context.Context, taxID string, score int, risk domain.RiskLevel) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE organizations SET trust_score = $2, risk_level = $3 WHERE tax_id = $1
	`, taxID, score, risk)
	if err != nil {
		return fmt.Errorf("update organization score: %w", err)
	}
	return nil
}

func (p *Postgres) UpdatePhoneScore(ctx context.Context, number string, score int, risk domain.RiskLevel) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE phone_numbers SET trust_score = $2, risk_level = $3 WHERE number = $1
	`, number, score, risk)
	if err != nil {
		return fmt.Errorf("update phone score: %w", err)
	}
	return nil
}

func (p *Postgres) phonesForOrg(ctx context.Context, taxID string) ([]domain.PhoneNumber, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT number, country_code, trust_score, risk_level, org_tax_id, created_at
		FROM phone_numbers
		WHERE org_tax_id = $1
		ORDER BY number
	`, taxID)
	if err != nil {
		return nil, fmt.Errorf("phones for organization: %w", err)
	}
	defer rows.Close()

	var out []domain.PhoneNumber
	for rows.Next() {
		var phone domain.PhoneNumber
		if err := rows.Scan(&phone.Number, &phone.CountryCode, &phone.TrustScore, &phone.RiskLevel, &phone.OrgTaxID, &phone.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		out = append(out, phone)
	}
	return out, rows.Err()
}

func (p *Postgres) queryReports(ctx context.Context, where string, arg any) ([]domain.Report, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, rating, reason, comment, source_ip,
		       org_tax_id, phone_number, person_id,
		       reported_email, social_link, bank_account, screenshot_ref,
		       raw_phone, user_agent, created_at
		FROM reports
		WHERE `+where+`
		ORDER BY created_at DESC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.Rating, &r.Reason, &r.Comment, &r.SourceIP,
			&r.OrgTaxID, &r.PhoneNumber, &r.PersonID,
			&r.ReportedEmail, &r.SocialLink, &r.BankAccount, &r.ScreenshotRef,
			&r.RawPhone, &r.UserAgent, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
