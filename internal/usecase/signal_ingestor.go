package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"NeuroBand/internal/domain/models"
	domrepo "NeuroBand/internal/domain/repository"
	domsvc "NeuroBand/internal/domain/service"
	applogger "NeuroBand/pkg/logger"
)

// SignalIngestor drives a signal through validation, storage and spectral analysis.
type SignalIngestor struct {
	store      domrepo.SignalStore
	gen        domsvc.SignalGenerator
	analyzer   domsvc.SpectralAnalyzer
	metrics    domrepo.Metrics
	l          *applogger.Logger
	sampleRate float64

	cache domrepo.ResultCache
	pub   domrepo.EventPublisher

	// writeMu covers every store access that ends in a cache update, so the cache never
	// holds a result older than the stored signal
	writeMu sync.Mutex
	// storedRate is the sample rate of the signal last written by this process
	storedRate float64
}

// NewSignalIngestor creates the ingestion use case. sampleRate is applied to uploaded signals.
func NewSignalIngestor(
	store domrepo.SignalStore,
	gen domsvc.SignalGenerator,
	analyzer domsvc.SpectralAnalyzer,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	sampleRate float64,
) *SignalIngestor {
	return &SignalIngestor{
		store:      store,
		gen:        gen,
		analyzer:   analyzer,
		metrics:    metrics,
		l:          l,
		sampleRate: sampleRate,
	}
}

// SetCache enables re-serving the latest result from cache.
func (u *SignalIngestor) SetCache(c domrepo.ResultCache) { u.cache = c }

// SetPublisher enables ingestion events.
func (u *SignalIngestor) SetPublisher(p domrepo.EventPublisher) { u.pub = p }

// Upload ingests a CSV payload.
func (u *SignalIngestor) Upload(ctx context.Context, r io.Reader) (*models.Ingestion, error) {
	ing := u.begin(models.ModeUpload)
	sig, err := ParseCSV(r, u.sampleRate)
	if err != nil {
		return nil, u.fail(ing, err)
	}
	return u.ingest(ctx, ing, sig)
}

// Generate ingests a freshly generated synthetic signal.
func (u *SignalIngestor) Generate(ctx context.Context) (*models.Ingestion, error) {
	ing := u.begin(models.ModeGenerate)
	sig, err := u.gen.Generate()
	if err != nil {
		return nil, u.fail(ing, models.AnalysisError("generate signal", err))
	}
	return u.ingest(ctx, ing, sig)
}

// Latest re-serves the most recent ingestion. Unless refresh is set a cached result is preferred;
// otherwise the stored signal is read back and analyzed again. Returns models.ErrNoSignal when
// nothing has been ingested.
func (u *SignalIngestor) Latest(ctx context.Context, refresh bool) (*models.Ingestion, error) {
	ing := u.begin(models.ModeLatest)

	if u.cache != nil && !refresh {
		res, ok, err := u.cache.GetResult(ctx)
		switch {
		case err != nil:
			u.l.Warn("ingest.latest cache_get_error", applogger.Error(err))
		case ok:
			u.l.Debug("ingest.latest cache_hit")
			ing.Result = res
			return u.finish(ing), nil
		}
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	start := time.Now()
	samples, err := u.store.Current(ctx)
	u.metrics.RecordLatency("store_read", time.Since(start).Seconds())
	if errors.Is(err, models.ErrNoSignal) {
		u.metrics.RecordIngestion(string(ing.Mode), "empty")
		return nil, err
	}
	if err != nil {
		return nil, u.fail(ing, asKind(models.KindStorage, "read signal", err))
	}
	sig, err := models.SignalFromSamples(samples, u.readBackRate())
	if err != nil {
		return nil, u.fail(ing, models.StorageError("decode signal", err))
	}

	bp, err := u.analyze(sig)
	if err != nil {
		return nil, u.fail(ing, err)
	}
	ing.Result = resultOf(sig, bp)
	u.putCache(ctx, ing.Result)
	return u.finish(ing), nil
}

func (u *SignalIngestor) ingest(ctx context.Context, ing *models.Ingestion, sig *models.Signal) (*models.Ingestion, error) {
	if err := sig.Validate(); err != nil {
		if ing.Mode == models.ModeUpload {
			return nil, u.fail(ing, models.ParseError("validate signal", err))
		}
		// a malformed generated signal is a server fault, not a client one
		return nil, u.fail(ing, fmt.Errorf("validate %s signal: %w", ing.Mode, err))
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	start := time.Now()
	if err := u.store.Replace(ctx, sig); err != nil {
		return nil, u.fail(ing, asKind(models.KindStorage, "replace signal", err))
	}
	u.storedRate = sig.SampleRate
	u.metrics.RecordLatency("store_replace", time.Since(start).Seconds())
	u.metrics.RecordStoredSamples(sig.Samples() * len(sig.Channels))

	// the write stands even if analysis fails: it holds genuinely received data
	bp, err := u.analyze(sig)
	if err != nil {
		return nil, u.fail(ing, err)
	}

	ing.Result = resultOf(sig, bp)
	u.putCache(ctx, ing.Result)
	u.publish(ctx, ing, sig)
	return u.finish(ing), nil
}

// readBackRate is the rate used to re-analyze the stored signal. The table keeps no rate, so
// after a restart the configured upload rate is assumed.
func (u *SignalIngestor) readBackRate() float64 {
	if u.storedRate > 0 {
		return u.storedRate
	}
	return u.sampleRate
}

func (u *SignalIngestor) analyze(sig *models.Signal) (*models.BandPowers, error) {
	start := time.Now()
	bp, err := u.analyzer.Compute(sig)
	u.metrics.RecordLatency("analysis", time.Since(start).Seconds())
	if err != nil {
		return nil, asKind(models.KindAnalysis, "analyze signal", err)
	}
	return bp, nil
}

func (u *SignalIngestor) putCache(ctx context.Context, res *models.AnalysisResult) {
	if u.cache == nil {
		return
	}
	if err := u.cache.SetResult(ctx, res); err != nil {
		u.l.Warn("ingest cache_set_error", applogger.Error(err))
	}
}

func (u *SignalIngestor) publish(ctx context.Context, ing *models.Ingestion, sig *models.Signal) {
	if u.pub == nil {
		return
	}
	evt := &models.IngestedEvent{
		ID:         ing.ID,
		Mode:       ing.Mode,
		ReceivedAt: ing.ReceivedAt,
		Channels:   sig.Channels,
		Samples:    sig.Samples(),
		BandPowers: ing.Result.BandPowers,
	}
	if err := u.pub.PublishIngested(ctx, evt); err != nil {
		u.metrics.RecordError("publish")
		u.l.Warn("ingest publish_error", applogger.String("id", ing.ID), applogger.Error(err))
	}
}

func (u *SignalIngestor) begin(mode models.IngestMode) *models.Ingestion {
	return &models.Ingestion{ID: uuid.NewString(), Mode: mode, ReceivedAt: time.Now()}
}

func (u *SignalIngestor) finish(ing *models.Ingestion) *models.Ingestion {
	ing.Duration = time.Since(ing.ReceivedAt)
	u.metrics.RecordIngestion(string(ing.Mode), "ok")
	u.metrics.RecordLatency("ingest_"+string(ing.Mode), ing.Duration.Seconds())
	u.l.Info("ingest ok",
		applogger.String("id", ing.ID),
		applogger.String("mode", string(ing.Mode)),
		applogger.Strings("channels", ing.Result.Channels),
		applogger.Int("samples", len(ing.Result.Time)),
		applogger.Duration("duration_ms", ing.Duration),
	)
	return ing
}

func (u *SignalIngestor) fail(ing *models.Ingestion, err error) error {
	kind, ok := models.KindOf(err)
	if !ok {
		kind = kindInternal
	}
	u.metrics.RecordIngestion(string(ing.Mode), string(kind))
	u.metrics.RecordError(string(kind))

	fields := []applogger.Field{
		applogger.String("id", ing.ID),
		applogger.String("mode", string(ing.Mode)),
		applogger.Error(err),
	}
	if kind == models.KindStorage || kind == kindInternal {
		u.l.Error("ingest failed", fields...)
	} else {
		u.l.Warn("ingest rejected", fields...)
	}
	return err
}

// kindInternal labels failures that carry no pipeline kind.
const kindInternal models.ErrorKind = "internal"

// asKind tags err with kind unless it already carries a pipeline kind.
func asKind(kind models.ErrorKind, op string, err error) error {
	if _, ok := models.KindOf(err); ok {
		return err
	}
	return &models.PipelineError{Kind: kind, Op: op, Err: err}
}

func resultOf(sig *models.Signal, bp *models.BandPowers) *models.AnalysisResult {
	return &models.AnalysisResult{
		Time:       sig.Time,
		Channels:   sig.Channels,
		Data:       sig.Data,
		BandPowers: bp,
	}
}

