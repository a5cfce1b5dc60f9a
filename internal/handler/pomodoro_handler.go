package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/middleware"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/service"
)

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
}

type versionRequest struct {
	BaseVersion int `json:"baseVersion"`
}

type updateSettingsRequest struct {
	BaseVersion            int  `json:"baseVersion"`
	WorkMinutes            int  `json:"workMinutes" binding:"required,min=1,max=60"`
	ShortBreakMinutes      int  `json:"shortBreakMinutes" binding:"required,min=1,max=30"`
	LongBreakMinutes       int  `json:"longBreakMinutes" binding:"required,min=1,max=60"`
	SessionsUntilLongBreak int  `json:"sessionsUntilLongBreak" binding:"required,min=2,max=10"`
	AutoStartBreaks        bool `json:"autoStartBreaks"`
	AutoStartPomodoros     bool `json:"autoStartPomodoros"`
}

type importSnapshotRequest struct {
	BaseVersion        int    `json:"baseVersion"`
	CurrentSessionType string `json:"currentSessionType"`
	SessionCount       int    `json:"sessionCount" binding:"min=0"`
	CompletedPomodoros int    `json:"completedPomodoros" binding:"min=0"`
}

type controlFunc func(ctx context.Context, userID string, baseVersion int) (*service.StateView, *apperrors.APIError)

func NewPomodoroHandler(pomodoroService *service.PomodoroService) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, apperrors.Unauthorized(""))
		return
	}

	state, apiErr := h.pomodoroService.GetState(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) Start(c *gin.Context) {
	h.control(c, h.pomodoroService.Start)
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	h.control(c, h.pomodoroService.Pause)
}

func (h *PomodoroHandler) Toggle(c *gin.Context) {
	h.control(c, h.pomodoroService.Toggle)
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	h.control(c, h.pomodoroService.Reset)
}

func (h *PomodoroHandler) Skip(c *gin.Context) {
	h.control(c, h.pomodoroService.Skip)
}

func (h *PomodoroHandler) ResetCounters(c *gin.Context) {
	h.control(c, h.pomodoroService.ResetCounters)
}

func (h *PomodoroHandler) ResetToDefaults(c *gin.Context) {
	h.control(c, h.pomodoroService.ResetToDefaults)
}

func (h *PomodoroHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindJSON(c, &req, "invalid_settings") || !requireBaseVersion(c, req.BaseVersion) {
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.pomodoroService.UpdateSettings(c.Request.Context(), userID, req.BaseVersion, model.TimerConfig{
		WorkMinutes:            req.WorkMinutes,
		ShortBreakMinutes:      req.ShortBreakMinutes,
		LongBreakMinutes:       req.LongBreakMinutes,
		SessionsUntilLongBreak: req.SessionsUntilLongBreak,
		AutoStartBreaks:        req.AutoStartBreaks,
		AutoStartPomodoros:     req.AutoStartPomodoros,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) GetSnapshot(c *gin.Context) {
	snapshot, apiErr := h.pomodoroService.ExportSnapshot(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

func (h *PomodoroHandler) ImportSnapshot(c *gin.Context) {
	var req importSnapshotRequest
	if !bindJSON(c, &req, "invalid_snapshot") || !requireBaseVersion(c, req.BaseVersion) {
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.pomodoroService.ImportSnapshot(c.Request.Context(), userID, req.BaseVersion, model.Snapshot{
		CurrentSessionType: model.SessionType(req.CurrentSessionType),
		SessionCount:       req.SessionCount,
		CompletedPomodoros: req.CompletedPomodoros,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) GetHistory(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, apperrors.Unauthorized(""))
		return
	}

	limit := 50
	rawLimit := c.Query("limit")
	if rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.pomodoroService.GetHistory(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Events streams timer events as server-sent events. The current state is
// sent first under the "state" event name.
func (h *PomodoroHandler) Events(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	events, cancel, apiErr := h.pomodoroService.Subscribe(ctx, userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer cancel()

	state, apiErr := h.pomodoroService.GetState(ctx, userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("state", state)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		}
	})
}

func (h *PomodoroHandler) control(c *gin.Context, op controlFunc) {
	var req versionRequest
	if !bindJSON(c, &req, "invalid_json") || !requireBaseVersion(c, req.BaseVersion) {
		return
	}

	state, apiErr := op(c.Request.Context(), middleware.UserID(c), req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func requireBaseVersion(c *gin.Context, baseVersion int) bool {
	if baseVersion > 0 {
		return true
	}
	writeError(c, apperrors.BadRequest("invalid_base_version", "baseVersion is required"))
	return false
}
