package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/metrics"
	"github.com/wrapped/internal/middleware"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/present"
	"github.com/wrapped/internal/service"
)

const (
	msgInvalidPayload = "Invalid request payload"
	msgMissingUserID  = "Missing user_id in the Slack command payload."
	maxCommandBody    = 64 << 10
	leaderboardMax    = 5
)

// ReportService — запросы к готовым отчётам (service.WrappedService).
type ReportService interface {
	Report(ctx context.Context, userID string) (*model.FinalReport, error)
	Leaderboard(ctx context.Context) (*model.Leaderboard, error)
	LatestRun(ctx context.Context) (*model.Run, error)
}

// Renderer превращает отчёт в текст сообщения.
type Renderer interface {
	Render(rep *model.FinalReport) string
}

type WrappedHandler struct {
	svc      ReportService
	renderer Renderer
}

func NewWrappedHandler(svc ReportService, renderer Renderer) *WrappedHandler {
	return &WrappedHandler{svc: svc, renderer: renderer}
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
}

// slackResponse — ответ на слэш-команду, видимый только вызвавшему.
type slackResponse struct {
	ResponseType string       `json:"response_type"`
	Blocks       []slackBlock `json:"blocks"`
}

func ephemeral(text string) slackResponse {
	return slackResponse{
		ResponseType: "ephemeral",
		Blocks:       []slackBlock{{Type: "section", Text: slackText{Type: "mrkdwn", Text: text}}},
	}
}

// SlackCommand — POST /slack/command (application/x-www-form-urlencoded от Slack).
func (h *WrappedHandler) SlackCommand(w http.ResponseWriter, r *http.Request) {
	defer logger.DeferLogDuration("wrapped.SlackCommand", time.Now())()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		logger.Errorf("slack command: read body: %v", err)
		metrics.ReportRequests.WithLabelValues("slack", metrics.OutcomeInvalid).Inc()
		writeText(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		logger.Errorf("slack command: parse body: %v", err)
		metrics.ReportRequests.WithLabelValues("slack", metrics.OutcomeInvalid).Inc()
		writeText(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	userID := form.Get("user_id")
	if userID == "" {
		logger.Warnf("slack command: user_id not found in the payload")
		metrics.ReportRequests.WithLabelValues("slack", metrics.OutcomeInvalid).Inc()
		writeText(w, http.StatusBadRequest, msgMissingUserID)
		return
	}

	logger.Infof("slash command invoked by user=%s", middleware.MaskUserID(userID))
	rep, err := h.svc.Report(r.Context(), userID)
	switch {
	case errors.Is(err, service.ErrNoData), errors.Is(err, service.ErrInvalidUserID):
		logger.Warnf("no data for user=%s", middleware.MaskUserID(userID))
		metrics.ReportRequests.WithLabelValues("slack", metrics.OutcomeNoData).Inc()
		writeJSON(w, http.StatusOK, ephemeral(present.NoDataText(userID)))
	case err != nil:
		logger.Errorf("slack command: %v", err)
		metrics.ReportRequests.WithLabelValues("slack", metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		metrics.ReportRequests.WithLabelValues("slack", metrics.OutcomeFound).Inc()
		writeJSON(w, http.StatusOK, ephemeral(h.renderer.Render(rep)))
	}
}

// GetReport — GET /api/wrapped/{userID}: FinalReport или 404 {"error":"no data"}.
func (h *WrappedHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !service.ValidUserID(userID) {
		metrics.ReportRequests.WithLabelValues("api", metrics.OutcomeInvalid).Inc()
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	rep, err := h.svc.Report(r.Context(), userID)
	if errors.Is(err, service.ErrNoData) {
		metrics.ReportRequests.WithLabelValues("api", metrics.OutcomeNoData).Inc()
		writeError(w, http.StatusNotFound, service.ErrNoData.Error())
		return
	}
	if err != nil {
		logger.Errorf("get report %s: %v", middleware.MaskUserID(userID), err)
		metrics.ReportRequests.WithLabelValues("api", metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	metrics.ReportRequests.WithLabelValues("api", metrics.OutcomeFound).Inc()
	writeJSON(w, http.StatusOK, rep)
}

// GetLeaderboard — GET /internal/leaderboard?limit=N (N от 1 до 5).
func (h *WrappedHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.svc.Leaderboard(r.Context())
	if err != nil {
		logger.Errorf("get leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	limit := queryInt(r, "limit", leaderboardMax)
	out := model.Leaderboard{
		TopThreadCreators: truncate(lb.TopThreadCreators, limit),
		TopRepliers:       truncate(lb.TopRepliers, limit),
	}
	writeJSON(w, http.StatusOK, out)
}

// GetLatestRun — GET /internal/runs/latest.
func (h *WrappedHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context())
	if errors.Is(err, service.ErrNoData) {
		writeError(w, http.StatusNotFound, service.ErrNoData.Error())
		return
	}
	if err != nil {
		logger.Errorf("get latest run: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func truncate(list []model.UserCount, n int) []model.UserCount {
	if n < 0 {
		n = 0
	}
	if len(list) > n {
		return list[:n]
	}
	return list
}
