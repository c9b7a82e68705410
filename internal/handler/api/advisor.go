package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "Stockyard/internal/domain/models"
	domrepo "Stockyard/internal/domain/repository"
	"Stockyard/internal/service/dataset"
	"Stockyard/internal/service/metrics"
	"Stockyard/internal/service/ratelimit"
	"Stockyard/internal/usecase"
	"Stockyard/pkg/cache"
	xhttp "Stockyard/pkg/http"
	xlogger "Stockyard/pkg/logger"
	"Stockyard/pkg/queue"
	"Stockyard/pkg/util"

	"github.com/labstack/echo/v4"
)

// AdvisorHandler exposes training, prediction and trend analysis over HTTP.
type AdvisorHandler struct {
	logger  *xlogger.Logger
	advisor *usecase.Advisor
	records *usecase.RecordsUseCase
	store   domrepo.Storage
	loader  *dataset.Loader

	cache    cache.Service
	trendTTL time.Duration
	queue    queue.QueueService
	history  domrepo.HistoryReader
	rl       *ratelimit.Limiter
}

func NewAdvisorHandler(logger *xlogger.Logger, advisor *usecase.Advisor, records *usecase.RecordsUseCase, store domrepo.Storage) *AdvisorHandler {
	metrics.Register()
	return &AdvisorHandler{
		logger:   logger,
		advisor:  advisor,
		records:  records,
		store:    store,
		loader:   dataset.NewLoader(),
		trendTTL: 30 * time.Second,
		rl:       ratelimit.New(),
	}
}

// SetCache enables response caching for trend queries.
func (h *AdvisorHandler) SetCache(c cache.Service, trendTTL time.Duration) {
	h.cache = c
	if trendTTL > 0 {
		h.trendTTL = trendTTL
	}
}

// SetQueue enables async training via the job queue.
func (h *AdvisorHandler) SetQueue(q queue.QueueService) { h.queue = q }

// SetHistoryReader enables market-scoped predict and trend queries that
// pull history out of storage instead of the request body.
func (h *AdvisorHandler) SetHistoryReader(r domrepo.HistoryReader) { h.history = r }

func (h *AdvisorHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/train", h.Train)
	g.POST("/predict", h.Predict)
	g.GET("/trend", h.Trend)
	g.GET("/records", h.Records)
	g.GET("/model", h.Model)

	// /metrics is registered by the server itself.
	e.GET("/healthz", h.Health)
}

func (h *AdvisorHandler) Train(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.AdvisorLatency.WithLabelValues("train").Observe(time.Since(start).Seconds()) }()

	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":train", 2, 0.2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	if req.Async {
		if h.queue == nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("async training disabled"))
		}
		if req.Source != "clickhouse" {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("async training requires source=clickhouse"))
		}
		if req.Market == "" {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("market required"))
		}
		payload := usecase.TrainJobPayload{Market: req.Market, From: req.From, To: req.To, Limit: req.Limit}
		if err := h.queue.PublishMessage(c.Request().Context(), usecase.TrainMessageType, payload); err != nil {
			h.logger.Error("enqueue training", xlogger.Error(err))
			metrics.AdvisorErrors.WithLabelValues("train").Inc()
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"status": "queued"})
	}

	records, err := h.loadTrainingRecords(c.Request().Context(), req)
	if err != nil {
		metrics.AdvisorErrors.WithLabelValues("train").Inc()
		h.logger.Error("load training records", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	report, err := h.advisor.Train(c.Request().Context(), records)
	if err != nil {
		metrics.AdvisorErrors.WithLabelValues("train").Inc()
		metrics.TrainingRuns.WithLabelValues("error").Inc()
		h.logger.Error("training failed", xlogger.Error(err))
		return h.domainError(c, err)
	}
	metrics.TrainingRuns.WithLabelValues("ok").Inc()
	h.invalidateTrendCache(c.Request().Context())
	return xhttp.SuccessResponse(c, report)
}

func (h *AdvisorHandler) loadTrainingRecords(ctx context.Context, req *models.TrainRequest) ([]models.SaleRecord, error) {
	switch req.Source {
	case "file":
		if req.Path == "" {
			return nil, xhttp.BadRequestError("path required for source=file")
		}
		return h.loader.LoadFile(req.Path)
	default:
		if req.Market == "" {
			return nil, xhttp.BadRequestError("market required for source=clickhouse")
		}
		from := util.ParseTimeDefault(req.From, time.Time{})
		to := util.ParseTimeDefault(req.To, time.Time{})
		return h.store.Query(ctx, req.Market, from, to, req.Limit)
	}
}

func (h *AdvisorHandler) Predict(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.AdvisorLatency.WithLabelValues("predict").Observe(time.Since(start).Seconds()) }()

	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":predict", 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	var records []models.SaleRecord
	if len(req.Records) > 0 {
		records = make([]models.SaleRecord, 0, len(req.Records))
		for _, p := range req.Records {
			rec, err := payloadToRecord(p)
			if err != nil {
				return xhttp.BadRequestResponse(c, err.Error())
			}
			records = append(records, *rec)
		}
	} else {
		if req.Market == "" {
			return xhttp.BadRequestResponse(c, "records or market required")
		}
		if h.history == nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("market-scoped prediction disabled"))
		}
		var err error
		records, err = h.history.GetLatestN(c.Request().Context(), req.Market, req.Window)
		if err != nil {
			metrics.AdvisorErrors.WithLabelValues("predict").Inc()
			h.logger.Error("predict history fetch", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		if len(records) == 0 {
			return h.domainError(c, models.ErrNoHistory)
		}
	}

	preds, err := h.advisor.PredictWithConfidence(c.Request().Context(), records)
	if err != nil {
		metrics.AdvisorErrors.WithLabelValues("predict").Inc()
		h.logger.Error("predict failed", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, preds)
}

func (h *AdvisorHandler) Trend(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.AdvisorLatency.WithLabelValues("trend").Observe(time.Since(start).Seconds()) }()

	req := &models.TrendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from := util.ParseTimeDefault(req.From, time.Time{})
	to := util.ParseTimeDefault(req.To, time.Time{})

	ctx := c.Request().Context()
	cacheKey := "trend:" + req.Market + ":" + req.From + ":" + req.To
	if h.cache != nil {
		var cached models.TrendAnalysis
		if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, &cached)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("trend cache get", xlogger.Error(err))
		}
	}

	res, err := h.analyzeTrend(ctx, req.Market, from, to)
	if err != nil {
		metrics.AdvisorErrors.WithLabelValues("trend").Inc()
		h.logger.Error("trend analysis failed", xlogger.Error(err))
		return h.domainError(c, err)
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, res, h.trendTTL); err != nil {
			h.logger.Warn("trend cache set", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// analyzeTrend pulls stored history for a market when one is named,
// otherwise falls back to the history snapshot from the last training run.
func (h *AdvisorHandler) analyzeTrend(ctx context.Context, market string, from, to time.Time) (*models.TrendAnalysis, error) {
	if market == "" || h.history == nil {
		return h.advisor.AnalyzeTrend(ctx, from, to)
	}
	// Trend derivation needs rows before the window start, so the query is
	// unbounded and the date filter applied inside the analyzer.
	recs, err := h.history.GetHistory(ctx, market, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return h.advisor.AnalyzeRecords(recs, from, to)
}

func (h *AdvisorHandler) Records(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.AdvisorLatency.WithLabelValues("records").Observe(time.Since(start).Seconds()) }()

	req := &models.RecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.records.GetRecords(c.Request().Context(), usecase.GetRecordsParams{
		Market: req.Market,
		From:   util.ParseTimeDefault(req.From, time.Time{}),
		To:     util.ParseTimeDefault(req.To, time.Time{}),
		Limit:  req.Limit,
	})
	if err != nil {
		metrics.AdvisorErrors.WithLabelValues("records").Inc()
		h.logger.Error("records query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) Model(c echo.Context) error {
	m := h.advisor.Model()
	if m == nil {
		return h.domainError(c, models.ErrModelNotTrained)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"model_id":   m.ID,
		"trained_at": m.TrainedAt,
		"features":   len(m.Schema),
		"members":    len(m.Forest.Trees),
		"samples":    m.Samples,
		"train_rmse": m.TrainRMSE,
	})
}

func (h *AdvisorHandler) Health(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "storage": err.Error()})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AdvisorHandler) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrModelNotTrained):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("model_not_trained", "", "no trained model available, train first", http.StatusConflict))
	case errors.Is(err, models.ErrNoHistory):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no sale history in range"))
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}

func (h *AdvisorHandler) invalidateTrendCache(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteByPattern(ctx, "trend:*"); err != nil {
		h.logger.Warn("trend cache invalidate", xlogger.Error(err))
	}
}

func payloadToRecord(p models.SaleRecordPayload) (*models.SaleRecord, error) {
	date, ok := util.ParseDate(p.Date)
	if !ok {
		return nil, errors.New("bad date: " + p.Date)
	}
	return &models.SaleRecord{
		Date:   date,
		Price:  p.Price,
		Weight: p.Weight,
		Age:    p.Age,
		Breed:  p.Breed,
		Season: p.Season,
		Market: p.Market,
	}, nil
}
