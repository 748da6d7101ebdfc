package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbatlas/pagegen/internal/gnc"
	"github.com/verbatlas/pagegen/internal/verbstore"
	"github.com/verbatlas/pagegen/pkg/compose"
)

type stubAnalyzer struct {
	analysis *gnc.Analysis
	err      error
}

func (s *stubAnalyzer) Analyze(_ context.Context, text string) (*gnc.Analysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.analysis != nil {
		return s.analysis, nil
	}
	return &gnc.Analysis{Text: text}, nil
}

func newTestServer(t *testing.T, options ...Option) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(options...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestAnalyzeProxy(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: &gnc.Analysis{
		Text:  "yo hablo",
		Verbs: []gnc.VerbAnalysis{{Surface: "hablo", Infinitive: "hablar"}},
	}}
	ts := newTestServer(t, WithAnalyzer(analyzer))

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]string{"text": "yo hablo"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	analysis := decodeBody[gnc.Analysis](t, resp)
	require.Len(t, analysis.Verbs, 1)
	assert.Equal(t, "hablar", analysis.Verbs[0].Infinitive)
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	ts := newTestServer(t, WithAnalyzer(&stubAnalyzer{}))

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]string{"text": "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeUpstreamFailureIs502(t *testing.T) {
	ts := newTestServer(t, WithAnalyzer(&stubAnalyzer{err: errors.New("upstream down")}))

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]string{"text": "texto"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCacheStatsAndClear(t *testing.T) {
	cache := gnc.NewCache(&stubAnalyzer{}, time.Minute)
	ts := newTestServer(t, WithAnalyzer(cache), WithAnalysisCache(cache))

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]string{"text": "yo hablo"})
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/api/analyze", map[string]string{"text": "yo hablo"})
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/cache/stats")
	require.NoError(t, err)
	stats := decodeBody[gnc.CacheStats](t, resp)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Entries)

	resp = postJSON(t, ts.URL+"/api/cache/clear", nil)
	cleared := decodeBody[map[string]int](t, resp)
	assert.Equal(t, 1, cleared["evicted"])

	resp, err = http.Get(ts.URL + "/api/cache/stats")
	require.NoError(t, err)
	stats = decodeBody[gnc.CacheStats](t, resp)
	assert.Equal(t, 0, stats.Entries)
}

func TestVerbCRUD(t *testing.T) {
	store := verbstore.New(filepath.Join(t.TempDir(), "verbs.json"))
	ts := newTestServer(t, WithVerbStore(store))

	// Create.
	resp := postJSON(t, ts.URL+"/api/verbs", verbstore.Record{
		Infinitive:  "hablar",
		Translation: "to speak",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Read.
	resp, err := http.Get(ts.URL + "/api/verbs/hablar")
	require.NoError(t, err)
	rec := decodeBody[verbstore.Record](t, resp)
	assert.Equal(t, "to speak", rec.Translation)

	// Update via PUT.
	body, _ := json.Marshal(verbstore.Record{Infinitive: "hablar", Translation: "to talk"})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/verbs/hablar", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// List.
	resp, err = http.Get(ts.URL + "/api/verbs")
	require.NoError(t, err)
	listing := decodeBody[map[string][]verbstore.Record](t, resp)
	require.Len(t, listing["verbs"], 1)
	assert.Equal(t, "to talk", listing["verbs"][0].Translation)

	// Delete.
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/verbs/hablar", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/verbs/hablar")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestVerbCreateRequiresInfinitive(t *testing.T) {
	store := verbstore.New(filepath.Join(t.TempDir(), "verbs.json"))
	ts := newTestServer(t, WithVerbStore(store))

	resp := postJSON(t, ts.URL+"/api/verbs", verbstore.Record{Translation: "nothing"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerbPutRejectsMismatchedInfinitive(t *testing.T) {
	store := verbstore.New(filepath.Join(t.TempDir(), "verbs.json"))
	ts := newTestServer(t, WithVerbStore(store))

	body, _ := json.Marshal(verbstore.Record{Infinitive: "comer"})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/verbs/hablar", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComposedPage(t *testing.T) {
	store := verbstore.New(filepath.Join(t.TempDir(), "verbs.json"))
	_, err := store.Put(verbstore.Record{
		Infinitive:  "hablar",
		Translation: "to speak",
		Conjugations: map[string][]string{
			"presente": {"hablo", "hablas", "habla", "hablamos", "habláis", "hablan"},
		},
	})
	require.NoError(t, err)

	ts := newTestServer(t, WithVerbStore(store), WithComposer(compose.New()))

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(raw)

	assert.Contains(t, page, `<a href="#verb-hablar">hablar</a>`)
	assert.Contains(t, page, "<h2>hablar</h2>")
	assert.NotContains(t, page, "{{TOC_CONTENT}}")
	assert.NotContains(t, page, "{{VERB_SECTIONS}}")
}

func TestUnconfiguredBackendsReport503(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]string{"text": "hola"})
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/api/verbs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
