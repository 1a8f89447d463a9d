// Package ports declares the collaborator interfaces the verification
// engine consumes. Concrete implementations live in internal/store,
// internal/registry, and internal/audit.
package ports

import (
	"context"

	"veritel/internal/domain"
	"veritel/internal/registry"
)

// EntityStore is the persistence boundary of the engine. Keyed lookups
// return (nil, nil) when no row matches; report queries return rows ordered
// descending by creation time at the source.
type EntityStore interface {
	FindOrganization(ctx context.Context, taxID string) (*domain.Organization, error)
	UpsertOrganization(ctx context.Context, org *domain.Organization) error

	FindPhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, error)
	UpsertPhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error

	FindPersonByName(ctx context.Context, name string) (*domain.Person, error)

	FindReportsByOrganization(ctx context.Context, taxID string) ([]domain.Report, error)
	FindReportsByPhone(ctx context.Context, number string) ([]domain.Report, error)
	FindReportsByPerson(ctx context.Context, personID int64) ([]domain.Report, error)
}

// RegistryClient aliases the external registry port so engine code only
// imports ports.
type RegistryClient = registry.Client
