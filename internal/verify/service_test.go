package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veritel/internal/audit"
	"veritel/internal/domain"
	"veritel/internal/registry"
	"veritel/internal/registry/mocks"
	"veritel/internal/store"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *store.Memory
	registry *mocks.MockClient
	audits   *audit.MemoryPublisher
	service  *Service
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewMemory()
	s.registry = mocks.NewMockClient(s.ctrl)
	s.audits = audit.NewMemoryPublisher()
	s.now = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.store, s.registry, "PL",
		WithAuditPublisher(s.audits),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func activeRecord(taxID, name string) *registry.Record {
	raw, _ := json.Marshal(map[string]string{"tax_id": taxID, "name": name})
	return &registry.Record{
		TaxID:        taxID,
		Name:         name,
		VATStatus:    registry.VATStatusActive,
		BankAccounts: []string{"PL61109010140000071219812874"},
		Raw:          raw,
	}
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.registry, "PL")
		s.Error(err)
	})
	s.Run("nil registry client returns error", func() {
		_, err := New(s.store, nil, "PL")
		s.Error(err)
	})
}

func (s *ServiceSuite) TestVerifyOrganizationFresh() {
	// tax ID not in store; registry answers with active VAT and a bank
	// account: base score 30+40+20 = 90
	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(activeRecord("7010301234", "Acme Sp. z o.o."), nil).
		Times(1)

	result, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)

	s.True(result.Known)
	s.Equal(90, result.Score)
	s.Equal(domain.RiskVeryLow, result.Risk)
	s.Equal(SourceLive, result.Source)
	s.Equal("Acme Sp. z o.o.", result.Name)

	// write-through happened
	org, err := s.store.FindOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)
	s.Require().NotNil(org)
	s.Equal(90, org.TrustScore)
	s.Equal(s.now, org.LastUpdated)
}

func (s *ServiceSuite) TestVerifyOrganizationFreshnessWindow() {
	// exactly one registry call for two lookups inside the window
	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(activeRecord("7010301234", "Acme"), nil).
		Times(1)

	first, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)
	s.Equal(SourceLive, first.Source)

	later := requestcontext.WithTime(context.Background(), s.now.Add(23*time.Hour))
	second, err := s.service.VerifyOrganization(later, "7010301234")
	s.Require().NoError(err)
	s.Equal(SourceCache, second.Source)
	s.Equal(first.Score, second.Score)
}

func (s *ServiceSuite) TestVerifyOrganizationStaleCacheWithNegatives() {
	// cached at 90 but 48h old, two negative reports on file
	s.Require().NoError(s.store.UpsertOrganization(s.ctx(), &domain.Organization{
		TaxID:       "7010301234",
		Name:        "Acme",
		TrustScore:  90,
		RiskLevel:   domain.RiskVeryLow,
		LastUpdated: s.now.Add(-48 * time.Hour),
	}))
	for i := 0; i < 2; i++ {
		s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
			ID:        fmt.Sprintf("neg-%d", i),
			Rating:    1,
			OrgTaxID:  "7010301234",
			CreatedAt: s.now.Add(-time.Duration(i) * time.Hour),
		}))
	}

	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(activeRecord("7010301234", "Acme"), nil).
		Times(1)

	result, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)

	s.Equal(SourceLive, result.Source)
	// fresh base 90 minus 2*15
	s.Equal(60, result.Score)
	s.Equal(domain.RiskMedium, result.Risk)
}

func (s *ServiceSuite) TestVerifyOrganizationScoreFloor() {
	// registry hit with nothing else: base 30; three negatives would go
	// negative without the floor
	rec := &registry.Record{TaxID: "7010301234", Name: "Shell Co", VATStatus: "Exempt", Raw: json.RawMessage(`{}`)}
	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(rec, nil).
		Times(1)
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
			ID:        fmt.Sprintf("neg-%d", i),
			Rating:    2,
			OrgTaxID:  "7010301234",
			CreatedAt: s.now,
		}))
	}

	result, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)
	s.Equal(0, result.Score)
	s.Equal(domain.RiskCritical, result.Risk)
}

func (s *ServiceSuite) TestVerifyOrganizationUnknown() {
	s.registry.EXPECT().
		Lookup(gomock.Any(), "9999999999", gomock.Any()).
		Return(nil, registry.ErrNotFound).
		Times(1)

	result, err := s.service.VerifyOrganization(s.ctx(), "9999999999")
	s.Require().NoError(err)

	s.False(result.Known)
	s.Equal(0, result.Score)
	s.Equal(domain.RiskCritical, result.Risk)

	// terminal outcome writes nothing
	org, err := s.store.FindOrganization(s.ctx(), "9999999999")
	s.Require().NoError(err)
	s.Nil(org)
}

func (s *ServiceSuite) TestVerifyOrganizationRegistryDown() {
	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(nil, registry.ErrUnavailable).
		Times(1)

	_, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().Error(err)
	s.Equal(dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func (s *ServiceSuite) TestVerifyOrganizationRejectsMalformedTaxID() {
	for _, bad := range []string{"", "123", "12345678901", "70103O1234"} {
		_, err := s.service.VerifyOrganization(s.ctx(), bad)
		s.Require().Error(err, "input %q", bad)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	}
}

func (s *ServiceSuite) TestVerifyOrganizationEvidenceWindow() {
	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(activeRecord("7010301234", "Acme"), nil).
		Times(1)
	for i := 0; i < 12; i++ {
		s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
			ID:        fmt.Sprintf("r-%d", i),
			Rating:    4,
			OrgTaxID:  "7010301234",
			CreatedAt: s.now.Add(-time.Duration(i) * time.Minute),
		}))
	}

	result, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)
	s.Len(result.Reports, 10)
	s.Equal(12, result.TotalReports)
	// trailing window keeps the most recent ones
	s.Equal("r-0", result.Reports[0].ID)
}

func (s *ServiceSuite) TestVerifyPhoneUnseenWithNegativeReport() {
	// number never upserted, but a report row points at it
	s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
		ID:          "neg",
		Rating:      1,
		PhoneNumber: "+48600000000",
		CreatedAt:   s.now.Add(-time.Hour),
	}))

	result, err := s.service.VerifyPhoneOrPerson(s.ctx(), "600 000 000")
	s.Require().NoError(err)

	s.Equal("+48600000000", result.Canonical)
	s.True(result.ValidPhone)
	s.Equal(30, result.Score)
	s.Equal(domain.RiskHigh, result.Risk)
	s.Len(result.Reports, 1)

	// first sighting persists the number at the neutral default
	phone, err := s.store.FindPhoneNumber(s.ctx(), "+48600000000")
	s.Require().NoError(err)
	s.Require().NotNil(phone)
	s.Equal(domain.DefaultTrustScore, phone.TrustScore)
}

func (s *ServiceSuite) TestVerifyPhoneKnownAtDefaultAdjusted() {
	s.Require().NoError(s.store.UpsertPhoneNumber(s.ctx(), &domain.PhoneNumber{
		Number:     "+48600000000",
		TrustScore: domain.DefaultTrustScore,
		RiskLevel:  domain.RiskNoData,
		CreatedAt:  s.now.Add(-time.Hour),
	}))
	s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
		ID:          "neg",
		Rating:      2,
		PhoneNumber: "+48600000000",
		CreatedAt:   s.now,
	}))

	result, err := s.service.VerifyPhoneOrPerson(s.ctx(), "+48600000000")
	s.Require().NoError(err)
	s.Equal(35, result.Score)
	s.Equal(domain.RiskElevated, result.Risk)

	// the adjustment is computed, not persisted, so it cannot compound
	again, err := s.service.VerifyPhoneOrPerson(s.ctx(), "+48600000000")
	s.Require().NoError(err)
	s.Equal(35, again.Score)
}

func (s *ServiceSuite) TestVerifyPhoneDualResolutionDedupes() {
	// the canonical string doubles as a stored person name
	person, err := s.store.EnsurePerson(s.ctx(), "+48600000000")
	s.Require().NoError(err)
	s.Require().NoError(s.store.UpsertPhoneNumber(s.ctx(), &domain.PhoneNumber{
		Number:     "+48600000000",
		TrustScore: domain.DefaultTrustScore,
		RiskLevel:  domain.RiskNoData,
		CreatedAt:  s.now.Add(-time.Hour),
	}))
	s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
		ID:          "dual",
		Rating:      1,
		PhoneNumber: "+48600000000",
		PersonID:    person.ID,
		CreatedAt:   s.now,
	}))

	result, err := s.service.VerifyPhoneOrPerson(s.ctx(), "600 000 000")
	s.Require().NoError(err)

	s.Require().NotNil(result.Person)
	s.Len(result.Reports, 1, "dual-linked report must appear exactly once")
}

func (s *ServiceSuite) TestVerifyPhoneLinkedOrganizationReturned() {
	s.Require().NoError(s.store.UpsertOrganization(s.ctx(), &domain.Organization{
		TaxID:       "7010301234",
		Name:        "Acme",
		TrustScore:  90,
		RiskLevel:   domain.RiskVeryLow,
		LastUpdated: s.now,
	}))
	s.Require().NoError(s.store.UpsertPhoneNumber(s.ctx(), &domain.PhoneNumber{
		Number:     "+48600000000",
		TrustScore: domain.DefaultTrustScore,
		RiskLevel:  domain.RiskNoData,
		OrgTaxID:   "7010301234",
		CreatedAt:  s.now.Add(-time.Hour),
	}))

	result, err := s.service.VerifyPhoneOrPerson(s.ctx(), "+48600000000")
	s.Require().NoError(err)
	s.Require().NotNil(result.Organization)
	s.Equal("Acme", result.Organization.Name)
}

func (s *ServiceSuite) TestVerifyNameQueries() {
	s.Run("unknown name has no data", func() {
		result, err := s.service.VerifyPhoneOrPerson(s.ctx(), "Jan Kowalski")
		s.Require().NoError(err)
		s.Equal("Jan Kowalski", result.Canonical)
		s.False(result.ValidPhone)
		s.Equal(domain.DefaultTrustScore, result.Score)
		s.Equal(domain.RiskNoData, result.Risk)
		s.Nil(result.Person)
	})

	s.Run("known person with negative reports", func() {
		person, err := s.store.EnsurePerson(s.ctx(), "Jan Oszust")
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateReport(s.ctx(), &domain.Report{
			ID:        "p-neg",
			Rating:    1,
			PersonID:  person.ID,
			CreatedAt: s.now,
		}))

		result, err := s.service.VerifyPhoneOrPerson(s.ctx(), "Jan Oszust")
		s.Require().NoError(err)
		s.Equal(35, result.Score)
		s.Equal(domain.RiskElevated, result.Risk)
	})

	s.Run("empty query rejected before any store access", func() {
		_, err := s.service.VerifyPhoneOrPerson(s.ctx(), "   ")
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestAuditTrail() {
	s.registry.EXPECT().
		Lookup(gomock.Any(), "7010301234", gomock.Any()).
		Return(activeRecord("7010301234", "Acme"), nil).
		Times(1)

	_, err := s.service.VerifyOrganization(s.ctx(), "7010301234")
	s.Require().NoError(err)

	events := s.audits.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionOrganizationVerified, events[0].Action)
	s.Equal("7010301234", events[0].Subject)
}
