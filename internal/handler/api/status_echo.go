package api

import (
	"net/http"
	"time"

	"BioWatch/internal/domain/models"
	drepo "BioWatch/internal/domain/repository"
	"BioWatch/internal/services/baseline"
	"BioWatch/internal/usecase"
	xhttp "BioWatch/pkg/http"
	xlogger "BioWatch/pkg/logger"
	xutil "BioWatch/pkg/util"

	"github.com/labstack/echo/v4"
)

// StatusEchoHandler exposes the detector's live state over HTTP.
type StatusEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.DetectionPipeline
	recorder drepo.Recorder
	profile  *baseline.Profile
}

func NewStatusEchoHandler(logger *xlogger.Logger, pipeline *usecase.DetectionPipeline, recorder drepo.Recorder, profile *baseline.Profile) *StatusEchoHandler {
	return &StatusEchoHandler{logger: logger, pipeline: pipeline, recorder: recorder, profile: profile}
}

func (h *StatusEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/confusion", h.Confusion)
	g.GET("/profile", h.Profile)
	g.GET("/log", h.Log)
	e.GET("/healthz", h.Health)
}

// Status returns the latest decision snapshot.
func (h *StatusEchoHandler) Status(c echo.Context) error {
	st := h.pipeline.Status()
	if st.Processed == 0 {
		return xhttp.NotFoundResponse(c, "no records processed yet")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=1")
	return xhttp.SuccessResponse(c, st)
}

// Confusion returns the cumulative scoring counters.
func (h *StatusEchoHandler) Confusion(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.pipeline.Counts())
}

// Profile returns the loaded baseline profile and the tolerances in effect.
func (h *StatusEchoHandler) Profile(c echo.Context) error {
	tol := h.pipeline.Tolerances()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"profile": h.profile,
		"tolerances": map[string]float64{
			models.ChannelTemperature: tol.Temp,
			models.ChannelPH:          tol.PH,
			models.ChannelRPM:         tol.RPM,
		},
	})
}

// Log returns detection log rows for a time range.
func (h *StatusEchoHandler) Log(c echo.Context) error {
	req := &models.LogRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	to := xutil.ParseTimeDefault(req.To, now)
	from := xutil.ParseTimeDefault(req.From, to.Add(-1*time.Hour))
	from, to = xutil.AlignFromTo(from, to, time.Second)

	rows, err := h.recorder.Query(c.Request().Context(), from, to, req.Limit)
	if err != nil {
		h.logger.Error("log query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Health reports liveness.
func (h *StatusEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
