// Package store persists the entity graph: organizations, phone numbers,
// persons, and the reports filed against them. Two implementations exist:
// Memory for unit tests and Postgres for production. Both satisfy the
// engine's EntityStore port plus the write operations the report and admin
// services need.
package store

import (
	"context"

	"veritel/internal/domain"
)

// Store is the full persistence surface. Keyed lookups return (nil, nil)
// when no row matches. Report queries return rows ordered descending by
// creation time. Nothing is ever hard-deleted.
type Store interface {
	FindOrganization(ctx context.Context, taxID string) (*domain.Organization, error)
	UpsertOrganization(ctx context.Context, org *domain.Organization) error

	FindPhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, error)
	UpsertPhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error
	LinkPhoneToOrganization(ctx context.Context, number, taxID string) error

	FindPersonByName(ctx context.Context, name string) (*domain.Person, error)
	EnsurePerson(ctx context.Context, name string) (*domain.Person, error)

	CreateReport(ctx context.Context, report *domain.Report) error
	FindReportsByOrganization(ctx context.Context, taxID string) ([]domain.Report, error)
	FindReportsByPhone(ctx context.Context, number string) ([]domain.Report, error)
	FindReportsByPerson(ctx context.Context, personID int64) ([]domain.Report, error)

	UpdateOrganizationScore(ctx context.Context, taxID string, score int, risk domain.RiskLevel) error
	UpdatePhoneScore(ctx context.Context, number string, score int, risk domain.RiskLevel) error
}
