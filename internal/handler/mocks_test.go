package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/footsteps/internal/auth"
	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/handler"
)

// ---- mock servicers ---------------------------------------------------------
// Each method is a function field; set only the ones your test needs.

type mockTripServicer struct {
	create func(ctx context.Context, requesterID string, trip domain.Trip) (domain.Trip, error)
	get    func(ctx context.Context, requesterID string, id uuid.UUID) (domain.Trip, error)
	list   func(ctx context.Context, requesterID string, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update func(ctx context.Context, requesterID string, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	delete func(ctx context.Context, requesterID string, id uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, requesterID string, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, requesterID, t)
}
func (m *mockTripServicer) Get(ctx context.Context, requesterID string, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, requesterID, id)
}
func (m *mockTripServicer) List(ctx context.Context, requesterID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.list(ctx, requesterID, p)
}
func (m *mockTripServicer) Update(ctx context.Context, requesterID string, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, requesterID, id, patch)
}
func (m *mockTripServicer) Delete(ctx context.Context, requesterID string, id uuid.UUID) error {
	return m.delete(ctx, requesterID, id)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockPhotoServicer struct {
	upload            func(ctx context.Context, requesterID string, tripID uuid.UUID, up domain.Upload) (domain.Photo, error)
	get               func(ctx context.Context, requesterID string, id uuid.UUID) (domain.Photo, error)
	updateCaption     func(ctx context.Context, requesterID string, id uuid.UUID, caption string) (domain.Photo, error)
	listByTripGrouped func(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.DayGroup, error)
	listMapped        func(ctx context.Context, requesterID string) ([]domain.Photo, error)
	export            func(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockPhotoServicer) Upload(ctx context.Context, requesterID string, tripID uuid.UUID, up domain.Upload) (domain.Photo, error) {
	return m.upload(ctx, requesterID, tripID, up)
}
func (m *mockPhotoServicer) Get(ctx context.Context, requesterID string, id uuid.UUID) (domain.Photo, error) {
	return m.get(ctx, requesterID, id)
}
func (m *mockPhotoServicer) UpdateCaption(ctx context.Context, requesterID string, id uuid.UUID, caption string) (domain.Photo, error) {
	return m.updateCaption(ctx, requesterID, id, caption)
}
func (m *mockPhotoServicer) ListByTripGrouped(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.DayGroup, error) {
	return m.listByTripGrouped(ctx, requesterID, tripID)
}
func (m *mockPhotoServicer) ListMapped(ctx context.Context, requesterID string) ([]domain.Photo, error) {
	return m.listMapped(ctx, requesterID)
}
func (m *mockPhotoServicer) Export(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.ExportRow, error) {
	return m.export(ctx, requesterID, tripID)
}

var _ handler.PhotoServicer = (*mockPhotoServicer)(nil)

type mockDashboardServicer struct {
	stats          func(ctx context.Context, requesterID string) (domain.Stats, error)
	onThisDay      func(ctx context.Context, requesterID string, now time.Time) (domain.Memory, error)
	upcoming       func(ctx context.Context, requesterID string, now time.Time) ([]domain.UpcomingTrip, error)
	recentActivity func(ctx context.Context, requesterID string) ([]domain.RecentActivity, error)
}

func (m *mockDashboardServicer) Stats(ctx context.Context, requesterID string) (domain.Stats, error) {
	return m.stats(ctx, requesterID)
}
func (m *mockDashboardServicer) OnThisDay(ctx context.Context, requesterID string, now time.Time) (domain.Memory, error) {
	return m.onThisDay(ctx, requesterID, now)
}
func (m *mockDashboardServicer) Upcoming(ctx context.Context, requesterID string, now time.Time) ([]domain.UpcomingTrip, error) {
	return m.upcoming(ctx, requesterID, now)
}
func (m *mockDashboardServicer) RecentActivity(ctx context.Context, requesterID string) ([]domain.RecentActivity, error) {
	return m.recentActivity(ctx, requesterID)
}

var _ handler.DashboardServicer = (*mockDashboardServicer)(nil)

// ---- helpers ----------------------------------------------------------------

const testUser = "user-alice"

var testSecret = []byte("handler-test-secret")

// newTestRouter wires srv into the production router with a real JWT verifier.
// This mirrors how main.go wires it.
func newTestRouter(srv *handler.Server) http.Handler {
	return handler.NewRouter(srv, handler.RouterConfig{
		Verifier:    auth.NewVerifier(testSecret),
		CORSOrigins: []string{"http://localhost:5173"},
		Logger:      discardLogger(),
	})
}

// authed returns req with a valid bearer token for testUser.
func authed(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	token, err := auth.Issue(testUser, testSecret, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// do sends an authenticated request through h and returns the recorder.
func do(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := authed(t, httptest.NewRequest(method, path, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// errorCode decodes the error envelope and returns its code.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func ptr[T any](v T) *T { return &v }

func bytesReader(s string) *bytes.Buffer { return bytes.NewBufferString(s) }
