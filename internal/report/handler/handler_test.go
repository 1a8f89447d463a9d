package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritel/internal/domain"
	"veritel/internal/report"
	dErrors "veritel/pkg/domain-errors"
)

type fakeService struct {
	got     report.Input
	created *domain.Report
	err     error
}

func (f *fakeService) Create(_ context.Context, in report.Input) (*domain.Report, error) {
	f.got = in
	return f.created, f.err
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func post(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/reports", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCreate(t *testing.T) {
	t.Run("creates report and returns 201", func(t *testing.T) {
		createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc := &fakeService{created: &domain.Report{ID: "rep-1", CreatedAt: createdAt}}
		router := newRouter(svc)

		w := post(t, router, CreateRequest{
			Target:     string(report.TargetPhoneOrPerson),
			Identifier: "501 234 567",
			Rating:     1,
			Reason:     "scam",
			Comment:    "cold call",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp CreateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "rep-1", resp.ID)
		assert.Equal(t, string(report.TargetPhoneOrPerson), resp.Target)
		assert.Equal(t, "2025-06-01T12:00:00Z", resp.CreatedAt)

		assert.Equal(t, "501 234 567", svc.got.Identifier)
		assert.Equal(t, 1, svc.got.Rating)
	})

	t.Run("rejects missing identifier", func(t *testing.T) {
		svc := &fakeService{}
		w := post(t, newRouter(svc), CreateRequest{
			Target: string(report.TargetOrganization),
			Rating: 3,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.got.Identifier)
	})

	t.Run("rejects out of range rating", func(t *testing.T) {
		w := post(t, newRouter(&fakeService{}), CreateRequest{
			Target:     string(report.TargetOrganization),
			Identifier: "7010301234",
			Rating:     6,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		w := post(t, newRouter(&fakeService{}), CreateRequest{
			Target:     "email",
			Identifier: "7010301234",
			Rating:     2,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps service errors to status codes", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeBadRequest, "tax ID must be 10 digits")}
		w := post(t, newRouter(svc), CreateRequest{
			Target:     string(report.TargetOrganization),
			Identifier: "123",
			Rating:     2,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "tax ID must be 10 digits", body["error_description"])
	})
}
