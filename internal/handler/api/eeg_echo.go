package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"NeuroBand/internal/domain/models"
	domrepo "NeuroBand/internal/domain/repository"
	"NeuroBand/internal/service/metrics"
	xhttp "NeuroBand/pkg/http"
	"NeuroBand/pkg/http/middleware"
	xlogger "NeuroBand/pkg/logger"
)

// HeaderIngestionID carries the id of the ingestion that produced a response.
const HeaderIngestionID = "X-Ingestion-ID"

// Ingestor is the use case behind the EEG endpoints.
type Ingestor interface {
	Upload(ctx context.Context, r io.Reader) (*models.Ingestion, error)
	Generate(ctx context.Context) (*models.Ingestion, error)
	Latest(ctx context.Context, refresh bool) (*models.Ingestion, error)
}

// EEGEchoHandler serves the ingestion endpoints.
type EEGEchoHandler struct {
	logger      *xlogger.Logger
	ing         Ingestor
	store       domrepo.SignalStore
	limiter     middleware.Allower
	uploadLimit int64
}

func NewEEGEchoHandler(logger *xlogger.Logger, ing Ingestor, store domrepo.SignalStore, uploadLimit int64) *EEGEchoHandler {
	metrics.Register()
	return &EEGEchoHandler{logger: logger, ing: ing, store: store, uploadLimit: uploadLimit}
}

// SetLimiter enables per-client rate limiting of the ingestion endpoints.
func (h *EEGEchoHandler) SetLimiter(a middleware.Allower) { h.limiter = a }

func (h *EEGEchoHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	g := e.Group("/api/eeg")
	g.POST("/upload", h.Upload, mw...)
	g.GET("/generate", h.Generate, mw...)
	g.GET("/latest", h.Latest)

	e.GET("/api/bands", h.Bands)
	e.GET("/healthz", h.Health)
}

func (h *EEGEchoHandler) Upload(c echo.Context) error {
	const endpoint = "upload"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	body, closeBody, aerr := h.csvBody(c)
	if aerr != nil {
		return h.fail(c, endpoint, aerr)
	}
	defer closeBody()

	ing, err := h.ing.Upload(c.Request().Context(), body)
	if err != nil {
		return h.fail(c, endpoint, toAppError(err))
	}
	return h.respond(c, ing)
}

func (h *EEGEchoHandler) Generate(c echo.Context) error {
	const endpoint = "generate"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	ing, err := h.ing.Generate(c.Request().Context())
	if err != nil {
		return h.fail(c, endpoint, toAppError(err))
	}
	return h.respond(c, ing)
}

func (h *EEGEchoHandler) Latest(c echo.Context) error {
	const endpoint = "latest"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.fail(c, endpoint, verr)
	}
	ing, err := h.ing.Latest(c.Request().Context(), req.Refresh)
	if err != nil {
		return h.fail(c, endpoint, toAppError(err))
	}
	return h.respond(c, ing)
}

func (h *EEGEchoHandler) Bands(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return xhttp.SuccessResponse(c, models.CanonicalBands())
}

func (h *EEGEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded", Store: err.Error()})
	}
	return xhttp.SuccessResponse(c, models.HealthResponse{Status: "ok", Store: "ok"})
}

// csvBody returns the uploaded CSV stream: either the multipart "file" field, which must be
// named *.csv, or a raw text/csv body.
func (h *EEGEchoHandler) csvBody(c echo.Context) (io.Reader, func(), *xhttp.AppError) {
	req := c.Request()
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	if h.uploadLimit > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, h.uploadLimit)
	}

	switch mediaType {
	case echo.MIMEMultipartForm:
		fh, err := c.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				return nil, nil, tooLargeError(h.uploadLimit)
			}
			return nil, nil, xhttp.BadRequestError(`multipart upload must carry a "file" field`)
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
			return nil, nil, xhttp.BadRequestErrorf("file %q is not a .csv file", fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, xhttp.BadRequestError("cannot read uploaded file").WithError(err)
		}
		return f, func() { _ = f.Close() }, nil
	case "text/csv", "application/csv":
		return req.Body, func() {}, nil
	default:
		return nil, nil, xhttp.BadRequestError(`expected a multipart "file" field or a text/csv body`)
	}
}

func (h *EEGEchoHandler) respond(c echo.Context, ing *models.Ingestion) error {
	metrics.ObserveResult(ing.Result)
	c.Response().Header().Set(HeaderIngestionID, ing.ID)
	return xhttp.SuccessResponse(c, ing.Result)
}

func (h *EEGEchoHandler) fail(c echo.Context, endpoint string, aerr *xhttp.AppError) error {
	metrics.EndpointErrors.WithLabelValues(endpoint, http.StatusText(aerr.Status)).Inc()
	if aerr.Status >= http.StatusInternalServerError {
		h.logger.Error("eeg request failed", xlogger.String("endpoint", endpoint), xlogger.Error(aerr))
	}
	return xhttp.AppErrorResponse(c, aerr)
}

// toAppError maps pipeline failures onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	if errors.Is(err, models.ErrNoSignal) {
		return xhttp.NotFoundError("no signal has been ingested yet")
	}
	if tooLarge(err) {
		return tooLargeError(0)
	}
	kind, ok := models.KindOf(err)
	if !ok {
		return xhttp.InternalError("internal server error").WithError(err)
	}
	switch kind {
	case models.KindParse:
		return xhttp.BadRequestError(err.Error())
	case models.KindAnalysis:
		return xhttp.UnprocessableError(err.Error())
	case models.KindStorage:
		return xhttp.UnavailableError(err.Error())
	default:
		return xhttp.InternalError("internal server error").WithError(err)
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func tooLargeError(limit int64) *xhttp.AppError {
	msg := "upload too large"
	if limit > 0 {
		msg = "upload exceeds " + humanize.IBytes(uint64(limit))
	}
	return xhttp.NewAppError("ERR_TOO_LARGE", msg, http.StatusRequestEntityTooLarge)
}
