package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/handler"
	"github.com/yumyai/blastview/pkg/middle"
	"github.com/yumyai/blastview/pkg/model"
)

func newTestRouter(t *testing.T, uploadRPS float64) http.Handler {
	t.Helper()
	store, err := db.NewBlockStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	ledger, err := db.OpenLedger("")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	app := &handler.AppContext{
		Store:          store,
		Ledger:         ledger,
		Results:        handler.NewResultCache(),
		Defaults:       model.DefaultParams(),
		MaxUploadBytes: 1 << 20,
	}
	return NewRouter(app, middle.RateLimitMiddleware(uploadRPS, zap.NewNop()))
}

func upload(t *testing.T, h http.Handler, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "report.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter(t *testing.T) {
	h := newTestRouter(t, 0)

	report := "# Query: contig/7\n" +
		"contig/7\tS1\t99.1\t1500\t1\t0\t1\t1500\t1\t1500\t1e-90\t1500\n"
	require.Equal(t, http.StatusOK, upload(t, h, report).Code)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/query/contig_7.txt", http.StatusOK},
		{http.MethodGet, "/query/contig_7.txt/download", http.StatusOK},
		{http.MethodGet, "/query/missing.txt", http.StatusNotFound},
		{http.MethodGet, "/aggregate", http.StatusOK},
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/queries", http.StatusOK},
		{http.MethodGet, "/api/v1/aggregate", http.StatusOK},
		{http.MethodGet, "/api/v1/uploads", http.StatusOK},
		{http.MethodGet, "/favicon.ico", http.StatusNotFound},
		{http.MethodGet, "/no/such/page", http.StatusNotFound},
		{http.MethodDelete, "/aggregate", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestRouterLimitsUploads(t *testing.T) {
	h := newTestRouter(t, 1)
	report := "# Query: Q1\n"

	assert.Equal(t, http.StatusOK, upload(t, h, report).Code)
	assert.Equal(t, http.StatusTooManyRequests, upload(t, h, report).Code)

	// Other routes are not limited.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
