package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritel/internal/audit"
	"veritel/internal/domain"
	"veritel/internal/store"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

func seedOrg(t *testing.T, st *store.Memory) {
	t.Helper()
	require.NoError(t, st.UpsertOrganization(context.Background(), &domain.Organization{
		TaxID:      "7010301234",
		Name:       "Acme Sp. z o.o.",
		VATStatus:  "Active",
		TrustScore: 90,
		RiskLevel:  domain.RiskVeryLow,
	}))
}

func newAdmin(st *store.Memory) (*Service, *audit.MemoryPublisher) {
	publisher := audit.NewMemoryPublisher()
	return NewService(st, "PL", WithAuditPublisher(publisher)), publisher
}

func TestSetOrganizationScore(t *testing.T) {
	ctx := requestcontext.WithAdminSubject(context.Background(), "admin")

	t.Run("overrides score and risk", func(t *testing.T) {
		st := store.NewMemory()
		seedOrg(t, st)
		svc, publisher := newAdmin(st)

		require.NoError(t, svc.SetOrganizationScore(ctx, "7010301234", 10, domain.RiskCritical))

		org, err := st.FindOrganization(ctx, "7010301234")
		require.NoError(t, err)
		assert.Equal(t, 10, org.TrustScore)
		assert.Equal(t, domain.RiskCritical, org.RiskLevel)

		events := publisher.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionAdminEdit, events[0].Action)
		assert.Equal(t, "admin", events[0].Actor)
		assert.Equal(t, "7010301234", events[0].Subject)
	})

	t.Run("rejects unknown organization", func(t *testing.T) {
		svc, _ := newAdmin(store.NewMemory())
		err := svc.SetOrganizationScore(ctx, "7010301234", 10, domain.RiskCritical)
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	t.Run("rejects malformed tax ID", func(t *testing.T) {
		svc, _ := newAdmin(store.NewMemory())
		err := svc.SetOrganizationScore(ctx, "12345", 10, domain.RiskCritical)
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	t.Run("rejects negative score and unknown risk", func(t *testing.T) {
		st := store.NewMemory()
		seedOrg(t, st)
		svc, _ := newAdmin(st)

		err := svc.SetOrganizationScore(ctx, "7010301234", -1, domain.RiskCritical)
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

		err = svc.SetOrganizationScore(ctx, "7010301234", 10, domain.RiskLevel("Catastrophic"))
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func TestSetPhoneScore(t *testing.T) {
	ctx := requestcontext.WithAdminSubject(context.Background(), "admin")

	t.Run("canonicalizes number before lookup", func(t *testing.T) {
		st := store.NewMemory()
		require.NoError(t, st.UpsertPhoneNumber(ctx, &domain.PhoneNumber{
			Number:     "+48501234567",
			TrustScore: 50,
			RiskLevel:  domain.RiskNoData,
		}))
		svc, _ := newAdmin(st)

		require.NoError(t, svc.SetPhoneScore(ctx, "501 234 567", 5, domain.RiskHigh))

		phone, err := st.FindPhoneNumber(ctx, "+48501234567")
		require.NoError(t, err)
		assert.Equal(t, 5, phone.TrustScore)
		assert.Equal(t, domain.RiskHigh, phone.RiskLevel)
	})

	t.Run("rejects unseen number", func(t *testing.T) {
		svc, _ := newAdmin(store.NewMemory())
		err := svc.SetPhoneScore(ctx, "+48501234567", 5, domain.RiskHigh)
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	t.Run("rejects non-phone input", func(t *testing.T) {
		svc, _ := newAdmin(store.NewMemory())
		err := svc.SetPhoneScore(ctx, "Jan Kowalski", 5, domain.RiskHigh)
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func TestLinkPhone(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(
		requestcontext.WithAdminSubject(context.Background(), "admin"), now)

	t.Run("registers unseen number and links it", func(t *testing.T) {
		st := store.NewMemory()
		seedOrg(t, st)
		svc, publisher := newAdmin(st)

		require.NoError(t, svc.LinkPhone(ctx, "501 234 567", "7010301234"))

		phone, err := st.FindPhoneNumber(ctx, "+48501234567")
		require.NoError(t, err)
		require.NotNil(t, phone)
		assert.Equal(t, domain.DefaultTrustScore, phone.TrustScore)
		assert.Equal(t, "7010301234", phone.OrgTaxID)
		assert.Equal(t, now, phone.CreatedAt)

		require.Len(t, publisher.Events(), 1)
		assert.Equal(t, "phone_link", publisher.Events()[0].Detail["kind"])
	})

	t.Run("keeps existing score when linking known number", func(t *testing.T) {
		st := store.NewMemory()
		seedOrg(t, st)
		require.NoError(t, st.UpsertPhoneNumber(ctx, &domain.PhoneNumber{
			Number:     "+48501234567",
			TrustScore: 15,
			RiskLevel:  domain.RiskHigh,
		}))
		svc, _ := newAdmin(st)

		require.NoError(t, svc.LinkPhone(ctx, "+48501234567", "7010301234"))

		phone, err := st.FindPhoneNumber(ctx, "+48501234567")
		require.NoError(t, err)
		assert.Equal(t, 15, phone.TrustScore)
		assert.Equal(t, "7010301234", phone.OrgTaxID)
	})

	t.Run("rejects link to unknown organization", func(t *testing.T) {
		svc, _ := newAdmin(store.NewMemory())
		err := svc.LinkPhone(ctx, "+48501234567", "7010301234")
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}
