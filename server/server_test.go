package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/engine"
	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/cache"
	"github.com/solacehq/solace/engine/catalog"
	"github.com/solacehq/solace/engine/governor"
	"github.com/solacehq/solace/engine/selector"
	"github.com/solacehq/solace/engine/session"
	"github.com/solacehq/solace/internal/observability"
	"github.com/solacehq/solace/internal/profile"
)

const testCatalog = `
version: 1
templates:
  - id: sad-validate
    emotion_tags: [sadness, neutral]
    base_text: "That sounds really heavy."
    variations:
      - "That sounds really heavy."
      - "I'm so sorry you're going through this."
    weight: 1.0
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	store, err := catalog.NewStore(path)
	require.NoError(t, err)

	metrics := observability.NewMetrics(256)
	extractor := session.NewExtractor(
		cache.NewMockContextCache(),
		&session.MockPreferenceReader{Prefs: map[string]any{}},
		&session.MockMemoryReader{},
		metrics,
		session.ExtractorConfig{QueryBudget: 3, ReadTimeout: 100 * time.Millisecond, SessionTTL: time.Minute},
	)
	eng := engine.New(
		engine.Config{ComplexityThreshold: 0.65},
		analyzer.New(),
		extractor,
		selector.New(store, selector.NewUsageTracker(100, 3)),
		governor.New(governor.Config{}),
		nil,
		metrics,
		nil,
	)

	return NewServer(&profile.Profile{Port: 0}, eng, store, metrics)
}

func TestChatEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"user_id":"u1","message":"I'm feeling really sad today","session_id":"s1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp engine.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Text)
	assert.Equal(t, engine.StrategyTemplate, resp.Metadata.Strategy)
	assert.Equal(t, "sadness", resp.Metadata.Emotion)
}

func TestChatEndpointValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing user_id", `{"message":"hello"}`},
		{"missing message", `{"user_id":"u1"}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"user_id":"u1","message":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	s.Echo().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.CatalogVersion)
	assert.Equal(t, 1, stats.CatalogTemplates)
	require.NotNil(t, stats.Metrics)
	assert.Equal(t, int64(1), stats.Metrics.TurnsTotal)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
