package hyperhist

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

func newTestServer(t *testing.T, opts ...HTTPOption) *HTTPServer {
	t.Helper()

	svc, err := New(WithBinCount(2))
	assert.NoError(t, err)

	srv, err := NewHTTPServer("127.0.0.1:0", svc, opts...)
	assert.NoError(t, err)

	srv.mountRoutes(context.Background())

	return srv
}

func doRequest(t *testing.T, srv *HTTPServer, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))

	resp, err := srv.app.Test(req)
	assert.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	_ = resp.Body.Close()

	return resp, data
}

func TestHTTPServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestHTTPServer_Config(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodGet, "/config", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg Config

	err := json.Unmarshal(body, &cfg)
	assert.NoError(t, err)
	assert.Equal(t, 2, cfg.BinCount)
	assert.Equal(t, constants.TokenizerComma, cfg.Tokenizer)
}

func TestHTTPServer_Histogram(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/histogram?bins=3&max_blocks=5", "1,2,3,4,5,6,7,8,9")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report Report

	err := json.Unmarshal(body, &report)
	assert.NoError(t, err)
	assert.Equal(t, 9, report.Statistics.Count)
	assert.Equal(t, []int{3, 3, 3}, report.Histogram.Bins)
	assert.Equal(t, 5, report.Histogram.MaxBlocks)
	assert.Equal(t, Digest("1,2,3,4,5,6,7,8,9"), report.Digest)
}

func TestHTTPServer_HistogramRange(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/histogram?bins=2&start=2&end=5", "1,2,3,4,5,6")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report Report

	err := json.Unmarshal(body, &report)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 2}, report.Histogram.Bins)
	assert.Equal(t, 1, report.Histogram.OutlierBelow)
	assert.Equal(t, 1, report.Histogram.OutlierAbove)
}

func TestHTTPServer_HistogramFormat(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/histogram?format=msgpack", "4,4,8")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMEOctetStream, resp.Header.Get(fiber.HeaderContentType))

	report, err := DecodeReport(constants.FormatMsgpack, body)
	assert.NoError(t, err)
	assert.Equal(t, 16, report.Statistics.Sum)

	resp, _ = doRequest(t, srv, http.MethodPost, "/histogram?format=xml", "4,4,8")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_HistogramErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{name: "invalid token", target: "/histogram", body: "1,x,3", status: http.StatusBadRequest},
		{name: "empty body", target: "/histogram", body: "", status: http.StatusBadRequest},
		{name: "zero bins", target: "/histogram?bins=0", body: "1,2", status: http.StatusBadRequest},
		{name: "bin count above limit", target: "/histogram?bins=4611686018427387904", body: "1,2,3", status: http.StatusBadRequest},
		{name: "bin count past int", target: "/histogram?bins=99999999999999999999", body: "1,2,3", status: http.StatusBadRequest},
		{name: "unknown format", target: "/histogram?format=xml", body: "1,2,3", status: http.StatusBadRequest},
		{name: "bad query", target: "/histogram?bins=ten", body: "1,2", status: http.StatusBadRequest},
		{name: "start above max", target: "/histogram?start=10", body: "1,2", status: http.StatusUnprocessableEntity},
		{name: "start not below end", target: "/histogram?start=2&end=2", body: "1,2", status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, srv, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var payload errorBody

			err := json.Unmarshal(body, &payload)
			assert.NoError(t, err)
			assert.True(t, payload.Error != "")
		})
	}
}

func TestHTTPServer_ParseErrorPosition(t *testing.T) {
	srv := newTestServer(t)

	_, body := doRequest(t, srv, http.MethodPost, "/histogram", "12,ab,7")

	var payload errorBody

	err := json.Unmarshal(body, &payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, payload.Line)
	assert.Equal(t, 4, payload.Column)
	assert.Equal(t, "ab", payload.Token)
}

func TestHTTPServer_Auth(t *testing.T) {
	srv := newTestServer(t, WithHTTPAuth(func(fiberCtx fiber.Ctx) error {
		if fiberCtx.Get("X-Token") != "secret" {
			return fiber.ErrUnauthorized
		}

		return nil
	}))

	resp, _ := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Token", "secret")

	resp, err := srv.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_ = resp.Body.Close()
}

func TestHTTPServer_ReportCache(t *testing.T) {
	srv := newTestServer(t, WithHTTPReportCache(2))

	resp, first := doRequest(t, srv, http.MethodPost, "/histogram?bins=2", "1,2,3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "miss", resp.Header.Get(headerCache))

	resp, second := doRequest(t, srv, http.MethodPost, "/histogram?bins=2", "1,2,3")
	assert.Equal(t, "hit", resp.Header.Get(headerCache))
	assert.Equal(t, string(first), string(second))

	// a different bin count is a different report
	resp, _ = doRequest(t, srv, http.MethodPost, "/histogram?bins=3", "1,2,3")
	assert.Equal(t, "miss", resp.Header.Get(headerCache))

	// failures are not cached
	resp, _ = doRequest(t, srv, http.MethodPost, "/histogram?start=9", "1,2,3")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 2, srv.reports.Len())

	svc, err := New()
	assert.NoError(t, err)

	_, err = NewHTTPServer("127.0.0.1:0", svc, WithHTTPReportCache(-1))
	assert.True(t, errors.Is(err, sentinel.ErrInvalidCapacity))
}

func TestHTTPServer_RecoversFromPanic(t *testing.T) {
	srv := newTestServer(t)

	srv.app.Get("/panic", func(fiber.Ctx) error {
		panic("handler failure")
	})

	resp, _ := doRequest(t, srv, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// the server keeps serving after a panic
	resp, body := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestHTTPServer_UnknownFormatSkipsPipeline(t *testing.T) {
	srv := newTestServer(t, WithHTTPReportCache(4))

	resp, _ := doRequest(t, srv, http.MethodPost, "/histogram?format=xml", "1,2,3")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "", resp.Header.Get(headerCache))
	assert.Equal(t, 0, srv.reports.Len())
}

func TestHTTPServer_ReportCacheDigestCollision(t *testing.T) {
	srv := newTestServer(t, WithHTTPReportCache(4))

	svc, err := New(WithBinCount(2))
	assert.NoError(t, err)

	other, err := Run(context.Background(), svc, "9,9,9")
	assert.NoError(t, err)

	// plant another body's report under the key of "1,2,3"
	q := histogramQuery{binCount: 2, maxBlocks: constants.DefaultMaxBlocks}
	srv.reports.Set(q.cacheKey("1,2,3"), cachedReport{content: "9,9,9", report: other})

	resp, body := doRequest(t, srv, http.MethodPost, "/histogram", "1,2,3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "miss", resp.Header.Get(headerCache))

	var report Report

	err = json.Unmarshal(body, &report)
	assert.NoError(t, err)
	assert.Equal(t, 6, report.Statistics.Sum)
	assert.Equal(t, Digest("1,2,3"), report.Digest)

	assert.True(t, q.cacheKey("1,2,3") != q.cacheKey("1,2,3,"))
}

func TestHTTPServer_StartShutdown(t *testing.T) {
	svc, err := New()
	assert.NoError(t, err)

	srv, err := NewHTTPServer("127.0.0.1:0", svc)
	assert.NoError(t, err)
	assert.Equal(t, "", srv.Address())

	ctx := context.Background()

	err = srv.Start(ctx)
	assert.NoError(t, err)
	assert.True(t, srv.Address() != "")

	// wait briefly for listener
	time.Sleep(30 * time.Millisecond)

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Post("http://"+srv.Address()+"/histogram?bins=1", "text/plain", strings.NewReader("1,2,3"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_ = resp.Body.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	assert.NoError(t, srv.Shutdown(shutdownCtx))
}
