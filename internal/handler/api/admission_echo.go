package api

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	models "TradeGate/internal/domain/models"
	domrepo "TradeGate/internal/domain/repository"
	svccache "TradeGate/internal/service/cache"
	gatemetrics "TradeGate/internal/service/metrics"
	"TradeGate/internal/service/ratelimit"
	"TradeGate/internal/usecase"
	xhttp "TradeGate/pkg/http"
	xlogger "TradeGate/pkg/logger"
	"TradeGate/pkg/util"
)

const haltCacheKey = "halt:current"

// AdmissionEchoHandler exposes the gate over HTTP.
type AdmissionEchoHandler struct {
	logger     *xlogger.Logger
	pipeline   *usecase.AdmissionPipeline
	halt       *usecase.HaltService
	threshold  *usecase.ThresholdService
	decisions  domrepo.DecisionStore
	gates      domrepo.GateRegistry
	exceptions domrepo.ExceptionStore
	beliefs    domrepo.BeliefStateStore

	limiter   *ratelimit.Limiter
	haltCache *svccache.TTLCache
}

func NewAdmissionEchoHandler(
	logger *xlogger.Logger,
	pipeline *usecase.AdmissionPipeline,
	halt *usecase.HaltService,
	threshold *usecase.ThresholdService,
	decisions domrepo.DecisionStore,
	gates domrepo.GateRegistry,
	exceptions domrepo.ExceptionStore,
	beliefs domrepo.BeliefStateStore,
) *AdmissionEchoHandler {
	gatemetrics.Register()
	return &AdmissionEchoHandler{
		logger:     logger,
		pipeline:   pipeline,
		halt:       halt,
		threshold:  threshold,
		decisions:  decisions,
		gates:      gates,
		exceptions: exceptions,
		beliefs:    beliefs,
		limiter:    ratelimit.New(),
		haltCache:  svccache.NewTTLCache(),
	}
}

func (h *AdmissionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/proposals", h.Propose)
	g.GET("/decisions", h.Decisions)
	g.GET("/threshold", h.Threshold)
	g.GET("/halt", h.Halt)
	g.POST("/halt/evaluate", h.EvaluateHalt)
	g.POST("/halt/clear", h.ClearHalt)
	g.POST("/exceptions", h.CreateException)
	g.POST("/beliefs", h.RecordBelief)
	g.GET("/gates", h.Gates)
}

func (h *AdmissionEchoHandler) Propose(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP(), 20, 10) {
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limit exceeded"})
	}

	req := &models.ProposalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	proposal := &models.TradeProposal{
		Asset:         req.Asset,
		Instrument:    req.Instrument,
		Direction:     models.Direction(req.Direction),
		RawConfidence: req.RawConfidence,
		ForecastType:  req.ForecastType,
		Regime:        req.Regime,
		EntryPrice:    req.EntryPrice,
		BaseSize:      req.BaseSize,
		ForecastID:    req.ForecastID,
		SubmittedAt:   util.ParseTimeDefault(req.SubmittedAt, time.Now()),
	}

	d, err := h.pipeline.Decide(c.Request().Context(), proposal)
	if err != nil {
		if errors.Is(err, usecase.ErrAssetBusy) {
			return xhttp.DataResponse(c, 409, map[string]string{"error": "asset admission in progress"})
		}
		h.logger.Error("admission pipeline error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	gatemetrics.NoveltyScore.Observe(d.NoveltyScore)
	if d.Executed {
		gatemetrics.SlippageApplied.WithLabelValues(d.SlippageRule).Observe(d.Slippage)
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *AdmissionEchoHandler) Decisions(c echo.Context) error {
	req := &models.DecisionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	filter := domrepo.DecisionFilter{
		Asset: req.Asset,
		Limit: req.Limit,
		From:  util.ParseTimeDefault(req.From, time.Time{}),
		To:    util.ParseTimeDefault(req.To, time.Time{}),
	}
	if req.Executed != "" {
		executed := req.Executed == "true"
		filter.Executed = &executed
	}

	rows, err := h.decisions.Query(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("decisions query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AdmissionEchoHandler) Threshold(c echo.Context) error {
	t, err := h.threshold.Today(c.Request().Context())
	if err != nil {
		h.logger.Error("threshold error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *AdmissionEchoHandler) Halt(c echo.Context) error {
	if cached, ok := h.haltCache.Get(haltCacheKey); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	state, err := h.halt.Current(c.Request().Context())
	if err != nil {
		h.logger.Error("halt state error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	view := haltView(state, time.Now())
	h.haltCache.Set(haltCacheKey, view, 2*time.Second)
	return xhttp.SuccessResponse(c, view)
}

func (h *AdmissionEchoHandler) EvaluateHalt(c echo.Context) error {
	state, err := h.halt.Evaluate(c.Request().Context(), time.Now())
	if err != nil {
		h.logger.Error("halt evaluate error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.haltCache.Set(haltCacheKey, haltView(state, time.Now()), 2*time.Second)
	return xhttp.SuccessResponse(c, haltView(state, time.Now()))
}

func (h *AdmissionEchoHandler) ClearHalt(c echo.Context) error {
	req := &models.HaltClearRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	state, err := h.halt.Clear(c.Request().Context(), time.Now(), req.ClearedBy)
	if err != nil {
		h.logger.Error("halt clear error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.haltCache.Set(haltCacheKey, haltView(state, time.Now()), 2*time.Second)
	return xhttp.SuccessResponse(c, haltView(state, time.Now()))
}

func (h *AdmissionEchoHandler) CreateException(c echo.Context) error {
	req := &models.ExceptionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	e := &models.CadenceException{
		ID:        uuid.NewString(),
		Floor:     req.Floor,
		Reason:    req.Reason,
		IssuedBy:  req.IssuedBy,
		IssuedAt:  now,
		ExpiresAt: util.NextMidnight(now),
	}
	if err := h.exceptions.Store(c.Request().Context(), e); err != nil {
		h.logger.Error("exception store error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, e)
}

// RecordBelief ingests a regime snapshot pushed by the upstream belief system.
// The novelty scorer compares proposal regimes against the latest snapshot.
func (h *AdmissionEchoHandler) RecordBelief(c echo.Context) error {
	req := &models.BeliefRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	at := util.ParseTimeDefault(req.ObservedAt, time.Now())
	if err := h.beliefs.RecordRegime(c.Request().Context(), req.Regime, at); err != nil {
		h.logger.Error("belief record error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{"regime": req.Regime, "observed_at": at})
}

func (h *AdmissionEchoHandler) Gates(c echo.Context) error {
	gates, err := h.gates.List(c.Request().Context())
	if err != nil {
		h.logger.Error("gates list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, gates, int64(len(gates)))
}

type haltResponse struct {
	Level         models.HaltLevel `json:"level"`
	Reason        string           `json:"reason,omitempty"`
	EnteredAt     time.Time        `json:"entered_at,omitempty"`
	SoftRemaining string           `json:"soft_remaining,omitempty"`
	EvaluatedAt   time.Time        `json:"evaluated_at"`
}

func haltView(s *models.HaltState, now time.Time) haltResponse {
	r := haltResponse{
		Level:       s.Effective(now),
		Reason:      s.Reason,
		EnteredAt:   s.EnteredAt,
		EvaluatedAt: s.EvaluatedAt,
	}
	if r.Level == models.HaltSoft {
		if remaining := s.SoftHaltUntil.Sub(now); remaining > 0 {
			r.SoftRemaining = remaining.Round(time.Second).String()
		}
	}
	return r
}
