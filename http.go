package hyperhist

import (
	"context"
	"errors"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/libs/serializer"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
	"github.com/hyp3rd/hyperhist/pkg/cache"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// HTTPOption configures the HTTP server.
type HTTPOption func(*HTTPServer)

// HTTPServer exposes a Service over HTTP with Fiber.
type HTTPServer struct {
	addr         string
	app          *fiber.App
	svc          Service
	readTimeout  time.Duration
	writeTimeout time.Duration
	bodyLimit    int
	cacheSize    int
	authFunc     func(fiber.Ctx) error
	reports      *cache.LRU[cachedReport]
	ln           net.Listener
	started      bool
}

// WithHTTPAuth sets an auth function (return error to block).
func WithHTTPAuth(fn func(fiber.Ctx) error) HTTPOption {
	return func(s *HTTPServer) { s.authFunc = fn }
}

// WithHTTPReadTimeout sets read timeout.
func WithHTTPReadTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPServer) { s.readTimeout = d }
}

// WithHTTPWriteTimeout sets write timeout.
func WithHTTPWriteTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPServer) { s.writeTimeout = d }
}

// WithHTTPBodyLimit sets the largest request body accepted, in bytes.
func WithHTTPBodyLimit(n int) HTTPOption {
	return func(s *HTTPServer) { s.bodyLimit = n }
}

// WithHTTPReportCache keeps up to capacity recent reports, keyed by body digest and parameters.
func WithHTTPReportCache(capacity int) HTTPOption {
	return func(s *HTTPServer) { s.cacheSize = capacity }
}

const (
	headerCache = "X-Hyperhist-Cache"

	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultBodyLimit    = 16 << 20
)

// cachedReport is a report cache entry. The content is kept so that a digest
// collision is treated as a miss.
type cachedReport struct {
	content string
	report  *Report
}

// errorBody is the JSON payload of a failed request.
type errorBody struct {
	Error  string `json:"error"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Token  string `json:"token,omitempty"`
}

// NewHTTPServer builds an HTTP server holder (lazy start).
// It fails only when the report cache capacity is negative.
func NewHTTPServer(addr string, svc Service, opts ...HTTPOption) (*HTTPServer, error) {
	srv := &HTTPServer{
		addr:         addr,
		svc:          svc,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		bodyLimit:    defaultBodyLimit,
	}
	for _, opt := range opts { // apply options
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
		BodyLimit:    srv.bodyLimit,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	// a panicking handler answers 500 instead of taking the process down
	srv.app.Use(recoverer.New())

	if srv.cacheSize != 0 {
		reports, err := cache.NewLRU[cachedReport](srv.cacheSize)
		if err != nil {
			return nil, err
		}

		srv.reports = reports
	}

	return srv, nil
}

// Start mounts the routes and launches the listener (idempotent).
// ctx is handed to the service for every request.
func (s *HTTPServer) Start(ctx context.Context) error {
	if s.started { // idempotent
		return nil
	}

	s.mountRoutes(ctx)

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "http listen")
	}

	s.ln = ln

	go func() { // serve in background; errors surface through failing requests
		_ = s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for ephemeral port). Empty if not started yet.
func (s *HTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return sentinel.ErrHTTPShutdownTimeout
	case err := <-ch:
		return err
	}
}

func (s *HTTPServer) mountRoutes(ctx context.Context) {
	useAuth := s.wrapAuth

	s.app.Get("/health", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))
	s.app.Get("/config", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.JSON(s.svc.Config()) }))
	s.app.Post("/histogram", useAuth(func(fiberCtx fiber.Ctx) error { return s.handleHistogram(ctx, fiberCtx) }))
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *HTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler { //nolint:ireturn
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

// histogramQuery holds the resolved parameters of a histogram request.
type histogramQuery struct {
	binCount  int
	maxBlocks int
	start     *int
	end       *int
	format    string
}

// parseHistogramQuery reads bins, start, end, max_blocks and format, falling back to cfg.
func parseHistogramQuery(fiberCtx fiber.Ctx, cfg Config) (histogramQuery, error) {
	q := histogramQuery{
		start:  cfg.StartingRange,
		end:    cfg.EndingRange,
		format: fiberCtx.Query("format", constants.FormatJSON),
	}

	if q.format != constants.FormatJSON && !slices.Contains(serializer.NewSerializerRegistry().Names(), q.format) {
		return q, ewrap.Wrap(sentinel.ErrSerializerNotFound, q.format)
	}

	var err error

	q.binCount, err = queryInt(fiberCtx, "bins", cfg.BinCount)
	if err != nil {
		return q, err
	}

	q.maxBlocks, err = queryInt(fiberCtx, "max_blocks", cfg.MaxBlocks)
	if err != nil {
		return q, err
	}

	if fiberCtx.Query("start") != "" {
		v, qerr := queryInt(fiberCtx, "start", 0)
		if qerr != nil {
			return q, qerr
		}

		q.start = &v
	}

	if fiberCtx.Query("end") != "" {
		v, qerr := queryInt(fiberCtx, "end", 0)
		if qerr != nil {
			return q, qerr
		}

		q.end = &v
	}

	return q, nil
}

func (q histogramQuery) options() []histogram.Option {
	opts := []histogram.Option{histogram.WithMaxBlocks(q.maxBlocks)}

	if q.start != nil {
		opts = append(opts, histogram.WithStartingRange(*q.start))
	}

	if q.end != nil {
		opts = append(opts, histogram.WithEndingRange(*q.end))
	}

	return opts
}

// cacheKey identifies the report of content under q.
func (q histogramQuery) cacheKey(content string) string {
	bound := func(v *int) string {
		if v == nil {
			return "-"
		}

		return strconv.Itoa(*v)
	}

	return Digest(content) + "/" + strconv.Itoa(len(content)) + "/" + strconv.Itoa(q.binCount) + "/" + strconv.Itoa(q.maxBlocks) + "/" + bound(q.start) + "/" + bound(q.end)
}

// handleHistogram runs the pipeline over the request body.
// Query parameters bins, start, end and max_blocks override the service config;
// format selects a report serializer other than JSON.
func (s *HTTPServer) handleHistogram(ctx context.Context, fiberCtx fiber.Ctx) error {
	q, err := parseHistogramQuery(fiberCtx, s.svc.Config())
	if err != nil {
		return fiberCtx.Status(fiber.StatusBadRequest).JSON(errorBody{Error: err.Error()})
	}

	content := string(fiberCtx.Body())

	report, err := s.report(ctx, fiberCtx, content, q)
	if err != nil {
		return fiberCtx.Status(statusFor(err)).JSON(errorBodyFor(err))
	}

	if q.format == constants.FormatJSON {
		return fiberCtx.JSON(report)
	}

	data, err := report.Encode(q.format)
	if err != nil {
		return fiberCtx.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: err.Error()})
	}

	fiberCtx.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

	return fiberCtx.Send(data)
}

// report returns the cached report for content and q, running the pipeline on a miss.
func (s *HTTPServer) report(ctx context.Context, fiberCtx fiber.Ctx, content string, q histogramQuery) (*Report, error) {
	if s.reports == nil {
		return RunWith(ctx, s.svc, content, q.binCount, q.options()...)
	}

	key := q.cacheKey(content)

	if entry, ok := s.reports.Get(key); ok && entry.content == content {
		fiberCtx.Set(headerCache, "hit")

		return entry.report, nil
	}

	report, err := RunWith(ctx, s.svc, content, q.binCount, q.options()...)
	if err != nil {
		return nil, err
	}

	s.reports.Set(key, cachedReport{content: content, report: report})
	fiberCtx.Set(headerCache, "miss")

	return report, nil
}

func queryInt(fiberCtx fiber.Ctx, name string, fallback int) (int, error) {
	raw := fiberCtx.Query(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ewrap.Wrapf(err, "query parameter %s", name)
	}

	return v, nil
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		parseErr    *stats.ParseError
		rangeErr    *histogram.RangeError
		internalErr *histogram.InternalError
	)

	switch {
	case errors.As(err, &internalErr):
		return fiber.StatusInternalServerError
	case errors.As(err, &rangeErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &parseErr),
		errors.Is(err, sentinel.ErrEmptyInput),
		errors.Is(err, sentinel.ErrInvalidBinCount),
		errors.Is(err, sentinel.ErrInvalidMaxBlocks):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorBodyFor(err error) errorBody {
	body := errorBody{Error: err.Error()}

	var parseErr *stats.ParseError
	if errors.As(err, &parseErr) {
		body.Line = parseErr.Line
		body.Column = parseErr.Column
		body.Token = parseErr.Token
	}

	return body
}
