package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodoro/timer/internal/handler"
	"pomodoro/timer/internal/middleware"
	"pomodoro/timer/internal/service"
)

func New(
	logger *slog.Logger,
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	pomodoroHandler *handler.PomodoroHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.Auth(authService), authHandler.Me)

	pomodoro := api.Group("/pomodoro")
	pomodoro.Use(middleware.Auth(authService))
	pomodoro.GET("/state", pomodoroHandler.GetState)
	pomodoro.POST("/start", pomodoroHandler.Start)
	pomodoro.POST("/pause", pomodoroHandler.Pause)
	pomodoro.POST("/toggle", pomodoroHandler.Toggle)
	pomodoro.POST("/reset", pomodoroHandler.Reset)
	pomodoro.POST("/skip", pomodoroHandler.Skip)
	pomodoro.PUT("/settings", pomodoroHandler.UpdateSettings)
	pomodoro.POST("/counters/reset", pomodoroHandler.ResetCounters)
	pomodoro.POST("/defaults/reset", pomodoroHandler.ResetToDefaults)
	pomodoro.GET("/snapshot", pomodoroHandler.GetSnapshot)
	pomodoro.PUT("/snapshot", pomodoroHandler.ImportSnapshot)
	pomodoro.GET("/history", pomodoroHandler.GetHistory)
	pomodoro.GET("/events", pomodoroHandler.Events)

	return engine
}
