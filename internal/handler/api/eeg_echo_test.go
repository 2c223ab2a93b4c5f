package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"NeuroBand/internal/domain/models"
	"NeuroBand/internal/services/generator"
	"NeuroBand/internal/services/spectral"
	"NeuroBand/internal/usecase"
	xhttp "NeuroBand/pkg/http"
	xlogger "NeuroBand/pkg/logger"
)

type memStore struct {
	mu      sync.Mutex
	samples []models.Sample
	fail    error
}

func (s *memStore) Replace(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return models.StorageError("replace signal", s.fail)
	}
	s.samples = sig.Flatten()
	return nil
}

func (s *memStore) Current(context.Context) ([]models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return nil, models.ErrNoSignal
	}
	return s.samples, nil
}

func (s *memStore) Health(context.Context) error { return s.fail }
func (s *memStore) Close() error                 { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordIngestion(string, string) {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordStoredSamples(int)        {}
func (nopMetrics) RecordLatency(string, float64)  {}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

const csvBody = "time,ch1,ch2\n0,1,0\n0.004,2,-1\n0.008,3,0\n0.012,2,1\n0.016,1,0\n"

func newTestHandler(store *memStore, limit int64) *EEGEchoHandler {
	l := xlogger.NewNop()
	ing := usecase.NewSignalIngestor(store, generator.New(), spectral.NewAnalyzer(), nopMetrics{}, l, 256)
	return NewEEGEchoHandler(l, ing, store, limit)
}

func serve(h *EEGEchoHandler, req *http.Request) *httptest.ResponseRecorder {
	srv := xhttp.NewServer(xlogger.NewNop(), []xhttp.Handler{h}, xhttp.WithMetricsPath(""))
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/eeg/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type resultBody struct {
	Time       []float64       `json:"time"`
	Channels   []string        `json:"channels"`
	Data       [][]float64     `json:"data"`
	BandPowers json.RawMessage `json:"band_powers"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if body["error"] == "" {
		t.Fatalf("error body without message: %q", rec.Body.String())
	}
	return body["error"]
}

func TestUploadMultipart(t *testing.T) {
	store := &memStore{}
	h := newTestHandler(store, 1<<20)
	rec := serve(h, multipartUpload(t, "rec.csv", csvBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(HeaderIngestionID) == "" {
		t.Fatalf("missing %s header", HeaderIngestionID)
	}
	var body resultBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Time) != 5 || body.Channels[1] != "ch2" || body.Data[0][2] != 3 {
		t.Fatalf("signal not echoed: %+v", body)
	}
	// band keys must come out in canonical order
	raw := string(body.BandPowers)
	last := -1
	for _, b := range models.CanonicalBands() {
		i := strings.Index(raw, `"`+b.Name+`"`)
		if i <= last {
			t.Fatalf("band %q out of order in %s", b.Name, raw)
		}
		last = i
	}
}

func TestUploadRawCSV(t *testing.T) {
	h := newTestHandler(&memStore{}, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/api/eeg/upload", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")
	if rec := serve(h, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUploadRejections(t *testing.T) {
	store := &memStore{}
	h := newTestHandler(store, 1<<20)

	wrongExt := serve(h, multipartUpload(t, "rec.txt", csvBody))
	if wrongExt.Code != http.StatusBadRequest {
		t.Fatalf("non-csv filename: status %d", wrongExt.Code)
	}
	decodeError(t, wrongExt)

	short := serve(h, multipartUpload(t, "rec.csv", "time,a,b\n0,1,2\n0.1,1\n"))
	if short.Code != http.StatusBadRequest {
		t.Fatalf("short row: status %d", short.Code)
	}
	if msg := decodeError(t, short); !strings.Contains(msg, "line 3") {
		t.Fatalf("unexpected message %q", msg)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/eeg/upload", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := serve(h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("json body: status %d", rec.Code)
	}

	if len(store.samples) != 0 {
		t.Fatalf("rejected uploads reached the store")
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := newTestHandler(&memStore{}, 64)
	req := httptest.NewRequest(http.MethodPost, "/api/eeg/upload", strings.NewReader(csvBody+csvBody[13:]))
	req.Header.Set("Content-Type", "text/csv")
	rec := serve(h, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateAndLatest(t *testing.T) {
	h := newTestHandler(&memStore{}, 0)

	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/latest", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("latest before ingestion: status %d", rec.Code)
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/generate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d, body %s", rec.Code, rec.Body.String())
	}
	var gen resultBody
	if err := json.Unmarshal(rec.Body.Bytes(), &gen); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gen.Time) != 2560 || len(gen.Channels) != 3 {
		t.Fatalf("generate shape: %d samples, %d channels", len(gen.Time), len(gen.Channels))
	}

	latest := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/latest?refresh=true", nil))
	if latest.Code != http.StatusOK {
		t.Fatalf("latest: status %d, body %s", latest.Code, latest.Body.String())
	}
	var got resultBody
	_ = json.Unmarshal(latest.Body.Bytes(), &got)
	if len(got.Time) != 2560 || got.Channels[0] != "Fz" {
		t.Fatalf("latest did not return stored signal")
	}

	bad := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/latest?refresh=maybe", nil))
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("invalid refresh: status %d", bad.Code)
	}
}

func TestStorageFailureIs503(t *testing.T) {
	h := newTestHandler(&memStore{fail: errors.New("disk full")}, 0)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/generate", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	decodeError(t, rec)

	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz: status %d", rec.Code)
	}
}

func TestBands(t *testing.T) {
	h := newTestHandler(&memStore{}, 0)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/bands", nil))
	var bands []models.Band
	if err := json.Unmarshal(rec.Body.Bytes(), &bands); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bands) != 5 || bands[2].Name != "Alpha (8-13 Hz)" || bands[4].Max != 100 {
		t.Fatalf("unexpected bands %+v", bands)
	}
}

func TestRateLimitedIngestion(t *testing.T) {
	h := newTestHandler(&memStore{}, 0)
	h.SetLimiter(denyAll{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/generate", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ParseErrorf("parse csv", "bad"), http.StatusBadRequest},
		{models.AnalysisErrorf("compute", "empty band"), http.StatusUnprocessableEntity},
		{models.StorageError("replace", errors.New("io")), http.StatusServiceUnavailable},
		{models.ErrNoSignal, http.StatusNotFound},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := toAppError(c.err).Status; got != c.want {
			t.Fatalf("%v: status %d, want %d", c.err, got, c.want)
		}
	}
}

type shortGenerator struct{}

func (shortGenerator) Generate() (*models.Signal, error) {
	return &models.Signal{Time: []float64{0, 1}, Channels: []string{"Fz"}, Data: [][]float64{{1}}, SampleRate: 256}, nil
}

func TestInvalidGeneratedSignalIs500(t *testing.T) {
	l := xlogger.NewNop()
	store := &memStore{}
	ing := usecase.NewSignalIngestor(store, shortGenerator{}, spectral.NewAnalyzer(), nopMetrics{}, l, 256)
	h := NewEEGEchoHandler(l, ing, store, 0)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/eeg/generate", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeError(t, rec)
}
