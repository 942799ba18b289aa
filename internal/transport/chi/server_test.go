package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wandervn/placesense/internal/domain"
	healthuc "github.com/wandervn/placesense/internal/usecase/health"
	searchuc "github.com/wandervn/placesense/internal/usecase/search"
)

// --- Fakes ---

type fakeStore struct {
	records []domain.Record
	err     error
}

func (f *fakeStore) LoadAll(_ context.Context) ([]domain.Record, error) {
	return f.records, f.err
}

func (f *fakeStore) Ping(_ context.Context) error { return nil }

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

func (f *fakeEmbedder) HealthCheck(_ context.Context) error { return nil }

func newTestRouter(store *fakeStore, embed *fakeEmbedder) http.Handler {
	searchSvc := searchuc.New(store, embed, searchuc.NewBruteForceRanker())
	healthSvc := healthuc.New(store, embed)
	server := NewServer(searchSvc, embed, healthSvc, 100, zap.NewNop())

	r := chi.NewRouter()
	server.Register(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func indexedRecords() []domain.Record {
	return []domain.Record{
		domain.NewRecord("1", "cho-ben-thanh", "Chợ Bến Thành", "market in district 1", []float32{1, 0}),
		domain.NewRecord("2", "dinh-doc-lap", "Dinh Độc Lập", "historic palace", []float32{0, 1}),
	}
}

// --- Tests ---

func TestSearchEndpoint(t *testing.T) {
	h := newTestRouter(&fakeStore{records: indexedRecords()}, &fakeEmbedder{vec: []float32{0.1, 0.9}})

	rr := postJSON(t, h, "/search", searchRequest{Query: "palace", TopK: 1})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Slug != "dinh-doc-lap" {
		t.Errorf("expected dinh-doc-lap, got %q", resp.Results[0].Slug)
	}
	if resp.Results[0].Similarity < 0.99 {
		t.Errorf("expected similarity ≈0.994, got %f", resp.Results[0].Similarity)
	}
}

func TestSearchEndpoint_EmptyQuery(t *testing.T) {
	h := newTestRouter(&fakeStore{records: indexedRecords()}, &fakeEmbedder{vec: []float32{1, 0}})

	rr := postJSON(t, h, "/search", searchRequest{Query: "  "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSearchEndpoint_TopKOutOfRange(t *testing.T) {
	h := newTestRouter(&fakeStore{records: indexedRecords()}, &fakeEmbedder{vec: []float32{1, 0}})

	rr := postJSON(t, h, "/search", searchRequest{Query: "palace", TopK: 101})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSearchEndpoint_EmbeddingDownMapsTo502(t *testing.T) {
	embed := &fakeEmbedder{err: fmt.Errorf("down: %w", domain.ErrEmbeddingUnavailable)}
	h := newTestRouter(&fakeStore{records: indexedRecords()}, embed)

	rr := postJSON(t, h, "/search", searchRequest{Query: "palace"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "embedding_unavailable" {
		t.Errorf("expected embedding_unavailable, got %q", resp.Code)
	}
}

func TestSearchEndpoint_EmptyIndexReturnsEmptyResults(t *testing.T) {
	h := newTestRouter(&fakeStore{records: []domain.Record{}}, &fakeEmbedder{vec: []float32{1, 0}})

	rr := postJSON(t, h, "/search", searchRequest{Query: "palace"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on empty index, got %d", rr.Code)
	}

	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(resp.Results))
	}
}

func TestEmbedEndpoint(t *testing.T) {
	h := newTestRouter(&fakeStore{}, &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}})

	rr := postJSON(t, h, "/embed", embedRequest{Text: "historic palace"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp embedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Embedding) != 3 {
		t.Fatalf("expected 3-d embedding, got %d", len(resp.Embedding))
	}
}

func TestEmbedEndpoint_MissingText(t *testing.T) {
	h := newTestRouter(&fakeStore{}, &fakeEmbedder{vec: []float32{1}})

	rr := postJSON(t, h, "/embed", embedRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	store := &fakeStore{records: indexedRecords()}
	h := newTestRouter(store, &fakeEmbedder{vec: []float32{1, 0}})

	rr := postJSON(t, h, "/admin/reload", struct{}{})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp reloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Records != 2 {
		t.Errorf("expected 2 records, got %d", resp.Records)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter(&fakeStore{}, &fakeEmbedder{vec: []float32{1}})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected ok, got %q", resp.Status)
	}
}
