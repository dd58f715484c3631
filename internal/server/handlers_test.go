package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardview/guardview/internal/analyzer"
	"github.com/guardview/guardview/internal/config"
	"github.com/guardview/guardview/internal/llm"
	"github.com/guardview/guardview/internal/logger"
	"github.com/guardview/guardview/internal/models"
	"github.com/guardview/guardview/internal/netmon"
	"github.com/guardview/guardview/internal/storage"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func sampleVerdict() *models.PhishingVerdict {
	return &models.PhishingVerdict{
		IsPhishing:  true,
		Confidence:  models.ConfidenceHigh,
		Explanation: "The host imitates a payment provider.",
		Indicators:  []string{"Suspicious subdomain", "Misspelled brand name"},
	}
}

type serverOption func(*config.Config)

func newTestServer(t *testing.T, run analyzer.VerdictFunc, opts ...serverOption) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	for _, opt := range opts {
		opt(cfg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	return New(Options{
		Config:      cfg,
		Logger:      testLogger(),
		Analyzer:    analyzer.New(run, testLogger()),
		Credentials: storage.NewCredentialStore(),
		Monitor:     netmon.NewSimulator(10),
		Build:       BuildInfo{Name: "guardview", Version: "test", Commit: "abc1234"},
		LoginHash:   hash,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHandleAnalyze_EmptyURL(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(_ context.Context, _ *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		calls.Add(1)
		return sampleVerdict(), nil
	})

	for _, url := range []string{"", "   "} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]string{"url": url})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgEmptyURL, decodeError(t, rec))
	}

	assert.Equal(t, int32(0), calls.Load(), "empty URL must not reach the model")
}

func TestHandleAnalyze_Success(t *testing.T) {
	srv := newTestServer(t, func(_ context.Context, req *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		assert.Equal(t, "http://paypa1-secure-login.com", req.URL)
		return sampleVerdict(), nil
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze",
		map[string]string{"url": "http://paypa1-secure-login.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, *sampleVerdict(), result.Verdict)
	require.Len(t, result.Indicators, 2)
	assert.False(t, result.Indicators[0].Positive)
	assert.False(t, result.Indicators[1].Positive)
}

func TestHandleAnalyze_RemoteFailureIsGeneric(t *testing.T) {
	srv := newTestServer(t, func(_ context.Context, _ *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		return nil, errors.New("connection reset by peer")
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]string{"url": "https://example.com"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, msgAnalysisFailed, decodeError(t, rec))
	// No partial result leaks into the error payload.
	assert.NotContains(t, rec.Body.String(), "verdict")
}

func TestHandleAnalyze_MalformedReplyIsGeneric(t *testing.T) {
	srv := newTestServer(t, func(_ context.Context, _ *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		return &models.PhishingVerdict{Confidence: "Certain"}, nil
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]string{"url": "https://example.com"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, msgAnalysisFailed, decodeError(t, rec))
}

func TestHandleAnalyze_InvalidBody(t *testing.T) {
	srv := newTestServer(t, func(_ context.Context, _ *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		return sampleVerdict(), nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze_SecondRequestWhileInFlightConflicts(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once

	srv := newTestServer(t, func(_ context.Context, _ *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		startedOnce.Do(func() { close(started) })
		<-release
		return sampleVerdict(), nil
	})

	firstCode := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze",
			strings.NewReader(`{"url":"https://example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		firstCode <- rec.Code
	}()

	<-started

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]string{"url": "https://example.org"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgInFlight, decodeError(t, rec))

	close(release)
	assert.Equal(t, http.StatusOK, <-firstCode)
}

func TestHandleAnalyze_RateLimited(t *testing.T) {
	srv := newTestServer(t, func(_ context.Context, _ *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
		return sampleVerdict(), nil
	}, func(cfg *config.Config) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]string{"url": "https://example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]string{"url": "https://example.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, msgRateLimited, decodeError(t, rec))
}

func TestHandlePanels(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/panels", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var panels []Panel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &panels))
	require.Len(t, panels, 6)
	assert.Equal(t, "phishing", panels[0].ID)
}

func TestCredentialLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/credentials",
		models.Credential{Site: "example.com", Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored models.Credential
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.NotEmpty(t, stored.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/credentials", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Credential
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/credentials/"+stored.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/credentials/"+stored.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCredential_DuplicateID(t *testing.T) {
	srv := newTestServer(t, nil)

	first := doJSON(t, srv, http.MethodPost, "/api/v1/credentials",
		models.Credential{ID: "fixed", Site: "a.com"})
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, srv, http.MethodPost, "/api/v1/credentials",
		models.Credential{ID: "fixed", Site: "b.com"})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestAddCredential_RequiresSite(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/credentials",
		models.Credential{Username: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDigest(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/integrity/digest", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp digestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SHA-256", resp.Algorithm)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", resp.Digest)
	assert.Equal(t, 5, resp.Size)
}

func TestHandleDigest_EmptyBody(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/integrity/digest", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name     string
		username string
		password string
		wantCode int
	}{
		{name: "valid credentials", username: "admin", password: "demo-pass", wantCode: http.StatusOK},
		{name: "wrong password", username: "admin", password: "nope", wantCode: http.StatusUnauthorized},
		{name: "wrong username", username: "root", password: "demo-pass", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/login",
				loginRequest{Username: tt.username, Password: tt.password})
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusOK {
				var resp loginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			} else {
				assert.Equal(t, "invalid credentials", decodeError(t, rec))
			}
		})
	}
}

func TestHandleNetworkEvents(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/network/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []models.NetworkEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Events)
}

func TestHandleAbout(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/about", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info BuildInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "guardview", info.Name)
	assert.Equal(t, "test", info.Version)
}

func TestDashboardServed(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GuardView")
}
