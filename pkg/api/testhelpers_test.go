package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

type testServer struct {
	srv   *Server
	store *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryStore()
	blobs, err := storage.NewFilesystemBlobStore(t.TempDir())
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	logger := slog.New(slog.DiscardHandler)

	authService := service.NewAuthService(store, tokens)

	srv := NewServer(Dependencies{
		Logger:        logger,
		Authenticator: middleware.NewAuthenticator(tokens, store.Users(), logger),
		Auth:          authService,
		Users:         service.NewUserService(store),
		Villages:      service.NewVillageService(store),
		Facilities:    service.NewFacilityService(store, blobs),
		Inspections:   service.NewInspectionService(store),
		Issues:        service.NewIssueService(store),
		Reports:       service.NewReportService(store),
		Dashboard:     service.NewDashboardService(store),
		CORSOrigins:   []string{"*"},
	})

	return &testServer{srv: srv, store: store}
}

// request performs a JSON request against the server and decodes the
// response body into out when it is non-nil.
func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
	}
	return rec
}

// register creates an account through the public endpoint and returns the
// user with a usable token.
func (ts *testServer) register(t *testing.T, name, email string, role model.Role) (*model.User, string) {
	t.Helper()

	var resp authResponse
	rec := ts.request(t, http.MethodPost, "/api/v1/auth/register", "", service.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "password123",
		Role:     role,
	}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return resp.User, resp.Token
}

func (ts *testServer) createVillage(t *testing.T, token, name, district string) *service.VillageDetail {
	t.Helper()

	var village service.VillageDetail
	rec := ts.request(t, http.MethodPost, "/api/v1/villages", token, service.CreateVillageInput{
		Name:     name,
		District: district,
	}, &village)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return &village
}

func (ts *testServer) createFacility(t *testing.T, token, name, villageID string) *service.FacilityDetail {
	t.Helper()

	var facility service.FacilityDetail
	rec := ts.request(t, http.MethodPost, "/api/v1/facilities", token, service.CreateFacilityInput{
		Name:          name,
		Type:          model.FacilityWell,
		Village:       villageID,
		Location:      []float64{29.62, -4.88},
		Condition:     model.ConditionGood,
		InstalledDate: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
	}, &facility)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return &facility
}
