package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"veritel/internal/domain"
	"veritel/pkg/requestcontext"
)

// Memory is the in-memory Store used by unit tests and local development
// without a database. Safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	orgs         map[string]*domain.Organization
	phones       map[string]*domain.PhoneNumber
	persons      map[string]*domain.Person
	reports      []domain.Report
	nextPersonID int64
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		orgs:         make(map[string]*domain.Organization),
		phones:       make(map[string]*domain.PhoneNumber),
		persons:      make(map[string]*domain.Person),
		nextPersonID: 1,
	}
}

func (m *Memory) FindOrganization(_ context.Context, taxID string) (*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	org, ok := m.orgs[taxID]
	if !ok {
		return nil, nil
	}
	out := *org
	out.Phones = m.phonesForOrgLocked(taxID)
	return &out, nil
}

func (m *Memory) UpsertOrganization(_ context.Context, org *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *org
	stored.Phones = nil
	m.orgs[org.TaxID] = &stored
	return nil
}

func (m *Memory) FindPhoneNumber(_ context.Context, number string) (*domain.PhoneNumber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	phone, ok := m.phones[number]
	if !ok {
		return nil, nil
	}
	out := *phone
	return &out, nil
}

func (m *Memory) UpsertPhoneNumber(_ context.Context, phone *domain.PhoneNumber) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *phone
	m.phones[phone.Number] = &stored
	return nil
}

func (m *Memory) LinkPhoneToOrganization(ctx context.Context, number, taxID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phone, ok := m.phones[number]
	if !ok {
		phone = &domain.PhoneNumber{
			Number:     number,
			TrustScore: domain.DefaultTrustScore,
			RiskLevel:  domain.RiskNoData,
			CreatedAt:  requestcontext.Now(ctx),
		}
		m.phones[number] = phone
	}
	phone.OrgTaxID = taxID
	return nil
}

func (m *Memory) FindPersonByName(_ context.Context, name string) (*domain.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	person, ok := m.persons[name]
	if !ok {
		return nil, nil
	}
	out := *person
	return &out, nil
}

func (m *Memory) EnsurePerson(_ context.Context, name string) (*domain.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if person, ok := m.persons[name]; ok {
		out := *person
		return &out, nil
	}
	person := &domain.Person{
		ID:         m.nextPersonID,
		Name:       name,
		TrustScore: domain.DefaultTrustScore,
		RiskLevel:  domain.RiskNoData,
	}
	m.nextPersonID++
	m.persons[name] = person
	out := *person
	return &out, nil
}

func (m *Memory) CreateReport(ctx context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = requestcontext.Now(ctx)
	}
	m.reports = append(m.reports, *report)
	return nil
}

func (m *Memory) FindReportsByOrganization(_ context.Context, taxID string) ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterReportsLocked(func(r domain.Report) bool { return r.OrgTaxID == taxID }), nil
}

func (m *Memory) FindReportsByPhone(_ context.Context, number string) ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterReportsLocked(func(r domain.Report) bool { return r.PhoneNumber == number }), nil
}

func (m *Memory) FindReportsByPerson(_ context.Context, personID int64) ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterReportsLocked(func(r domain.Report) bool { return r.PersonID == personID && personID != 0 }), nil
}

func (m *Memory) UpdateOrganizationScore(_ context.Context, taxID string, score int, risk domain.RiskLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	org, ok := m.orgs[taxID]
	if !ok {
		return nil
	}
	org.TrustScore = score
	org.RiskLevel = risk
	return nil
}

func (m *Memory) UpdatePhoneScore(_ context.Context, number string, score int, risk domain.RiskLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phone, ok := m.phones[number]
	if !ok {
		return nil
	}
	phone.TrustScore = score
	phone.RiskLevel = risk
	return nil
}

func (m *Memory) phonesForOrgLocked(taxID string) []domain.PhoneNumber {
	var out []domain.PhoneNumber
	for _, phone := range m.phones {
		if phone.OrgTaxID == taxID {
			out = append(out, *phone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// filterReportsLocked returns matches ordered descending by creation time,
// matching the ordering contract of the Postgres queries.
func (m *Memory) filterReportsLocked(match func(domain.Report) bool) []domain.Report {
	var out []domain.Report
	for _, r := range m.reports {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
