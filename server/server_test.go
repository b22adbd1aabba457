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
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/headlines"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/digest"
	"github.com/pevans/headlines/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBuilder struct {
	digest *headlines.Digest
	err    error
	calls  int
}

func (b *stubBuilder) Build(context.Context) (*digest.Result, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return &digest.Result{Digest: b.digest, SitesBuilt: len(b.digest.Sites)}, nil
}

// Test helper: create a test archive store
func setupTestStore(t *testing.T) *archive.Store {
	t.Helper()
	store, err := archive.NewStore(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create a test router around a store and builder
func setupTestRouter(t *testing.T, builder Builder) (*gin.Engine, *archive.Store) {
	t.Helper()
	store := setupTestStore(t)
	server := NewAPIServer(store, render.NewRenderer(), builder, "My News", log.New(io.Discard))
	return server.SetupRouter(), store
}

// Test helper: a one-site digest
func sampleDigest(site string) *headlines.Digest {
	h := headlines.NewHeadlines()
	h.Set("T1", "https://example.com/1")
	h.Set("T2", "https://example.com/2")
	d := headlines.NewDigest()
	d.Add(site, h)
	return d
}

// Test helper: perform a request against the router
func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHandleListDigests_Empty verifies behavior with an empty archive
func TestHandleListDigests_Empty(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/digests")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp ListDigestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.Empty(t, resp.Digests)
	assert.Equal(t, DefaultListLimit, resp.Limit, "default limit should apply")
	assert.Equal(t, 0, resp.Offset)
}

// TestHandleListDigests_Pagination verifies limit and offset
func TestHandleListDigests_Pagination(t *testing.T) {
	router, store := setupTestRouter(t, nil)

	for _, site := range []string{"A", "B", "C"} {
		_, err := store.Save("My News", sampleDigest(site))
		require.NoError(t, err)
	}

	w := doRequest(router, http.MethodGet, "/api/v1/digests?limit=2&offset=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListDigestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 1, resp.Offset)
	require.Len(t, resp.Digests, 2)
	assert.Equal(t, "B", resp.Digests[0].Digest.Sites[0].Name)
	assert.Equal(t, "A", resp.Digests[1].Digest.Sites[0].Name)
}

// TestHandleListDigests_InvalidParams verifies parameter validation
func TestHandleListDigests_InvalidParams(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	for _, query := range []string{"limit=abc", "limit=-1", "offset=x"} {
		t.Run(query, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/digests?"+query)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_parameter", resp.Error.Code)
		})
	}
}

// TestHandleGetDigest verifies retrieving one digest as JSON
func TestHandleGetDigest(t *testing.T) {
	router, store := setupTestRouter(t, nil)
	entry, err := store.Save("My News", sampleDigest("SiteA"))
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/api/v1/digests/"+entry.DigestID.String())
	require.Equal(t, http.StatusOK, w.Code)

	var got archive.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, entry.DigestID, got.DigestID)
	assert.Equal(t, 2, got.HeadlineCount)
	require.Len(t, got.Digest.Sites, 1)
	assert.Equal(t, []headlines.Headline{
		{Text: "T1", URL: "https://example.com/1"},
		{Text: "T2", URL: "https://example.com/2"},
	}, got.Digest.Sites[0].Headlines.All())
}

// TestHandleGetDigest_Errors verifies invalid and unknown IDs
func TestHandleGetDigest_Errors(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "invalid UUID", path: "/api/v1/digests/not-a-uuid", status: http.StatusBadRequest, code: "invalid_id"},
		{name: "unknown UUID", path: "/api/v1/digests/" + uuid.New().String(), status: http.StatusNotFound, code: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.path)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

// TestHandleDeleteDigest verifies deletion
func TestHandleDeleteDigest(t *testing.T) {
	router, store := setupTestRouter(t, nil)
	entry, err := store.Save("My News", sampleDigest("SiteA"))
	require.NoError(t, err)

	path := "/api/v1/digests/" + entry.DigestID.String()

	w := doRequest(router, http.MethodDelete, path)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = store.Get(entry.DigestID)
	assert.ErrorIs(t, err, archive.ErrDigestNotFound)

	w = doRequest(router, http.MethodDelete, path)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/digests/bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleBuildDigest verifies a build is archived and returned
func TestHandleBuildDigest(t *testing.T) {
	builder := &stubBuilder{digest: sampleDigest("Fresh")}
	router, store := setupTestRouter(t, builder)

	w := doRequest(router, http.MethodPost, "/api/v1/digests")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, builder.calls)

	var entry archive.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "My News", entry.Title)

	stored, err := store.Get(entry.DigestID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", stored.Digest.Sites[0].Name)
}

// TestHandleBuildDigest_Failure verifies build errors are reported
func TestHandleBuildDigest_Failure(t *testing.T) {
	builder := &stubBuilder{err: errors.New("failed to extract Broken: fetch failed")}
	router, store := setupTestRouter(t, builder)

	w := doRequest(router, http.MethodPost, "/api/v1/digests")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "build_failed", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Broken")

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "failed builds should not be archived")
}

// TestHandleBuildDigest_NoBuilder verifies the endpoint is disabled without a
// builder
func TestHandleBuildDigest_NoBuilder(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/digests")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// TestHandleLatestPage verifies the newest digest is rendered as HTML
func TestHandleLatestPage(t *testing.T) {
	router, store := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/")
	assert.Equal(t, http.StatusNotFound, w.Code, "no digests yet")

	_, err := store.Save("My News", sampleDigest("Older"))
	require.NoError(t, err)
	latest, err := store.Save("My News", sampleDigest("Newer"))
	require.NoError(t, err)

	w = doRequest(router, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "<h2> Newer </h2>")
	assert.NotContains(t, body, "Older")
	assert.Contains(t, body, latest.CreatedAt.Local().Format(render.DateLayout))
	assert.Contains(t, body, `<li><a href="https://example.com/1">T1</a></li>`)
}

// TestHandleDigestPage verifies archived pages keep their creation date
func TestHandleDigestPage(t *testing.T) {
	router, store := setupTestRouter(t, nil)
	entry, err := store.Save("My News", sampleDigest("SiteA"))
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/digests/"+entry.DigestID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>My News: "+entry.CreatedAt.Local().Format(render.DateLayout)+"</h1>")

	w = doRequest(router, http.MethodGet, "/digests/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Digest not found")

	w = doRequest(router, http.MethodGet, "/digests/nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestCORSPreflight verifies OPTIONS requests are answered by the middleware
func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodOptions, "/api/v1/digests")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestRequestLogging verifies requests are logged at debug level
func TestRequestLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs)
	logger.SetLevel(log.DebugLevel)

	store := setupTestStore(t)
	router := NewAPIServer(store, render.NewRenderer(), nil, "My News", logger).SetupRouter()

	doRequest(router, http.MethodGet, "/api/v1/digests")
	assert.Contains(t, logs.String(), "/api/v1/digests")
}

// Property test: entries rendered by the server match the renderer directly
func TestHandleDigestPage_MatchesRenderer(t *testing.T) {
	router, store := setupTestRouter(t, nil)
	entry, err := store.Save("My News", sampleDigest("SiteA"))
	require.NoError(t, err)

	expected, err := render.NewRenderer().RenderAt(entry.Digest, entry.CreatedAt)
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/digests/"+entry.DigestID.String())
	assert.Equal(t, expected, w.Body.String())
}
