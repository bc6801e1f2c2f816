package server

import (
	"faceclock/internal/enroll"
	"faceclock/internal/rtc"
	"faceclock/internal/store"
	"faceclock/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ============================================================
// ROUTER SETUP
// ============================================================

// Deps bundles the repositories and managers the handlers need.
type Deps struct {
	Workers    *store.WorkerRepo
	Attendance *store.AttendanceRepo
	Sites      *store.SiteRepo
	Enroll     *enroll.Manager
	Signaling  *rtc.Manager
	CameraId   int
}

func NewRouter(cfg models.Config, deps Deps) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.AllowOrigin == "" || cfg.AllowOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.AllowOrigin}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	h := &handlers{deps: deps}

	router.GET("/healthz", h.Health)

	// Kiosk signaling: WebRTC offer/answer, ICE, location and landmark
	// pushes all ride this socket.
	router.GET("/ws/signal", gin.WrapF(deps.Signaling.HandleWS))

	api := router.Group("/api", AuthRequired(cfg.JWTKey))
	{
		api.GET("/workers", h.ListWorkers)
		api.GET("/workers/:id/today", h.TodayStatus)
		api.GET("/workers/:id/history", h.History)
		api.GET("/attendance/day", h.DayRoster)

		admin := api.Group("", AdminOnly())
		{
			admin.POST("/workers", h.CreateWorker)
			admin.POST("/workers/:id/deactivate", h.DeactivateWorker)

			admin.POST("/enroll/start", h.StartEnrollment)
			admin.GET("/enroll/:session/status", h.EnrollmentStatus)
			admin.POST("/enroll/:session/cancel", h.CancelEnrollment)

			admin.POST("/sites/refresh", h.RefreshSites)
			admin.POST("/overrides", h.GrantOverride)
		}
	}

	return router
}
