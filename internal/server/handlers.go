package server

import (
	"net/http"
	"strconv"
	"time"

	"faceclock/internal/camera"
	"faceclock/internal/store"
	"faceclock/models"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	deps Deps
}

func (h *handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ============================================================
// WORKERS
// ============================================================

func (h *handlers) ListWorkers(c *gin.Context) {
	workers, err := h.deps.Workers.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load workers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": workers})
}

type createWorkerPayload struct {
	Name     string  `json:"name" binding:"required"`
	Category string  `json:"category"`
	BaseRate float64 `json:"base_rate"`
}

func (h *handlers) CreateWorker(c *gin.Context) {
	var payload createWorkerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	worker := models.WorkerProfile{
		Name:     payload.Name,
		Category: payload.Category,
		BaseRate: payload.BaseRate,
	}
	if err := h.deps.Workers.Create(&worker); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create worker"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"worker": worker})
}

func (h *handlers) DeactivateWorker(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker id"})
		return
	}
	if err := h.deps.Workers.Deactivate(id); err != nil {
		if err == store.ErrWorkerNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "worker not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate worker"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "worker deactivated"})
}

// ============================================================
// ATTENDANCE
// ============================================================

func (h *handlers) TodayStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker id"})
		return
	}

	rec, err := h.deps.Attendance.TodayRecord(id, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ABSENT"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": rec.Status, "record": rec})
}

func (h *handlers) History(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker id"})
		return
	}

	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if v := c.Query("from"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			from = parsed
		}
	}
	if v := c.Query("to"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			to = parsed
		}
	}

	history, err := h.deps.Attendance.History(id, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *handlers) DayRoster(c *gin.Context) {
	day := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	roster, err := h.deps.Attendance.DayRoster(day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roster"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "roster": roster})
}

// ============================================================
// ENROLLMENT
// ============================================================

type startEnrollmentPayload struct {
	WorkerId int64 `json:"worker_id" binding:"required"`
}

func (h *handlers) StartEnrollment(c *gin.Context) {
	var payload startEnrollmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	worker, err := h.deps.Workers.GetById(payload.WorkerId)
	if err != nil {
		if err == store.ErrWorkerNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "worker not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load worker"})
		return
	}

	source, err := camera.OpenDevice(h.deps.CameraId)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "camera unavailable"})
		return
	}

	sessionId, err := h.deps.Enroll.Start(c.Request.Context(), worker.Id, worker.Name, source)
	if err != nil {
		source.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start enrollment"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": sessionId})
}

func (h *handlers) EnrollmentStatus(c *gin.Context) {
	progress, err := h.deps.Enroll.Status(c.Param("session"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *handlers) CancelEnrollment(c *gin.Context) {
	if err := h.deps.Enroll.Cancel(c.Param("session")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "enrollment canceled"})
}

// ============================================================
// SITES & OVERRIDES
// ============================================================

func (h *handlers) RefreshSites(c *gin.Context) {
	if err := h.deps.Sites.Refresh(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh sites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": h.deps.Sites.ActiveSites()})
}

type grantOverridePayload struct {
	WorkerId  int64     `json:"worker_id" binding:"required"`
	SiteId    int64     `json:"site_id"`
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}

func (h *handlers) GrantOverride(c *gin.Context) {
	var payload grantOverridePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	if !payload.ExpiresAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be in the future"})
		return
	}

	claims := c.MustGet("claims").(*Claims)
	override := models.AccessOverride{
		WorkerId:   payload.WorkerId,
		SiteId:     payload.SiteId,
		ApprovedBy: claims.Username,
		ExpiresAt:  payload.ExpiresAt,
	}
	if err := h.deps.Sites.GrantOverride(&override); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant override"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"override": override})
}
