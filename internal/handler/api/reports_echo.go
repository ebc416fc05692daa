package api

import (
	"errors"
	"time"

	models "MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	"MarketPrep/internal/usecase"
	xhttp "MarketPrep/pkg/http"
	xlogger "MarketPrep/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReportsEchoHandler exposes the analysis core over HTTP.
type ReportsEchoHandler struct {
	logger    *xlogger.Logger
	bars      *usecase.BarsUseCase
	assembler *usecase.ReportAssembler
	scan      *usecase.ScanUseCase
}

func NewReportsEchoHandler(logger *xlogger.Logger, bars *usecase.BarsUseCase, assembler *usecase.ReportAssembler, scan *usecase.ScanUseCase) *ReportsEchoHandler {
	return &ReportsEchoHandler{logger: logger, bars: bars, assembler: assembler, scan: scan}
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/bars", h.Bars)
	g.GET("/indicators", h.Indicators)
	g.GET("/levels", h.Levels)
	g.GET("/score", h.Score)
	g.GET("/report", h.Report)
	g.POST("/scan", h.Scan)
}

func (h *ReportsEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if req.From != "" || req.To != "" {
		now := time.Now().UTC()
		from := xhttp.ParseTimeDefault(req.From, now.AddDate(0, 0, -30))
		to := xhttp.ParseTimeDefault(req.To, now)
		from, to = xhttp.AlignFromTo(from, to, string(tf))

		res, err := h.bars.GetBarsRange(c.Request().Context(), usecase.GetBarsRangeParams{
			Symbol:    req.Symbol,
			Timeframe: tf,
			From:      from,
			To:        to,
		})
		if err != nil {
			h.logger.Error("bars range usecase error", xlogger.Error(err))
			return h.domainError(c, err)
		}
		return xhttp.SuccessResponse(c, res)
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:    req.Symbol,
		Timeframe: tf,
		Limit:     req.N,
	})
	if err != nil {
		h.logger.Error("bars usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportsEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	set, sig, err := h.assembler.Indicators(c.Request().Context(), req.Symbol, tf)
	if err != nil {
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":     req.Symbol,
		"timeframe":  string(tf),
		"indicators": set,
		"signals":    sig,
	})
}

func (h *ReportsEchoHandler) Levels(c echo.Context) error {
	req := &models.LevelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tfs := normalizeAll(req.TFs)

	lvls, err := h.assembler.Levels(c.Request().Context(), req.Symbol, tfs)
	if err != nil {
		h.logger.Error("levels usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"levels": lvls,
	})
}

func (h *ReportsEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	sc, err := h.assembler.Score(c.Request().Context(), req.Symbol, tf)
	if err != nil {
		h.logger.Error("score usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, sc)
}

func (h *ReportsEchoHandler) Report(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tfs := normalizeAll(req.TFs)

	rep, err := h.assembler.Report(c.Request().Context(), req.Symbol, tfs)
	if err != nil {
		h.logger.Error("report usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, rep)
}

func (h *ReportsEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if req.Async {
		if err := h.scan.Enqueue(c.Request().Context(), req.Symbols, tf); err != nil {
			h.logger.Error("scan enqueue error", xlogger.Error(err))
			return h.domainError(c, err)
		}
		return xhttp.CreatedResponse(c, map[string]interface{}{
			"enqueued": len(req.Symbols),
			"tf":       string(tf),
		})
	}

	res, err := h.scan.Scan(c.Request().Context(), req.Symbols, tf)
	if err != nil && !errors.Is(err, models.ErrPartialData) {
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	// partial scans still return the scored subset
	return xhttp.SuccessResponse(c, res)
}

// domainError maps domain sentinels onto the API error envelope.
func (h *ReportsEchoHandler) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()).WithError(err))
	case errors.Is(err, models.ErrInvalidSeries), errors.Is(err, models.ErrInvalidConfig):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	default:
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()).WithError(err))
	}
}

func normalizeAll(raw []string) []domrepo.Timeframe {
	out := make([]domrepo.Timeframe, 0, len(raw))
	seen := make(map[domrepo.Timeframe]bool, len(raw))
	for _, s := range raw {
		tf := domrepo.NormalizeTimeframe(s)
		if !seen[tf] {
			seen[tf] = true
			out = append(out, tf)
		}
	}
	return out
}
