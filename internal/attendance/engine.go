package attendance

import (
	"log"
	"sync"
	"time"

	"faceclock/models"
)

// ============================================================
// ATTENDANCE DECISION ENGINE
// ============================================================
//
// Per worker per day: ABSENT → PRESENT → LEFT, with a transient
// early-checkout confirmation in between. The engine decides; persistence
// belongs to the caller.

type DecisionKind string

const (
	DecisionCheckIn         DecisionKind = "CHECK_IN"
	DecisionCheckOut        DecisionKind = "CHECK_OUT"
	DecisionTooEarly        DecisionKind = "TOO_EARLY"
	DecisionConfirmRequired DecisionKind = "EARLY_CHECKOUT_PENDING_CONFIRM"
	DecisionDayCompleted    DecisionKind = "DAY_COMPLETED"
	DecisionCooldown        DecisionKind = "COOLDOWN"
)

// Decision is what one recognized scan means for the matched worker.
type Decision struct {
	Kind     DecisionKind
	WorkerId int64
	At       time.Time
	Message  string
}

// Engine tracks the transient per-worker state (cooldowns, armed
// confirmation windows). Durable day state lives in the attendance store
// and is passed in per call.
type Engine struct {
	cfg      models.AttendanceConfig
	cooldown time.Duration

	mu        sync.Mutex
	suppress  map[int64]time.Time // worker -> cooldown expiry
	confirmBy map[int64]time.Time // worker -> confirmation deadline
}

func New(cfg models.AttendanceConfig, cooldown time.Duration) *Engine {
	return &Engine{
		cfg:       cfg,
		cooldown:  cooldown,
		suppress:  make(map[int64]time.Time),
		confirmBy: make(map[int64]time.Time),
	}
}

// Decide maps a successful match plus the worker's current day record onto
// the next transition. Every non-cooldown decision re-arms the cooldown so
// a face held in frame cannot machine-gun transitions.
func (e *Engine) Decide(workerId int64, rec *models.AttendanceRecord, now time.Time) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	if until, ok := e.suppress[workerId]; ok && now.Before(until) {
		return Decision{Kind: DecisionCooldown, WorkerId: workerId, At: now,
			Message: "scan ignored, cooldown active"}
	}

	decision := e.decideLocked(workerId, rec, now)
	e.suppress[workerId] = now.Add(e.cooldown)
	return decision
}

func (e *Engine) decideLocked(workerId int64, rec *models.AttendanceRecord, now time.Time) Decision {
	// First recognition of the day.
	if rec == nil || rec.CheckInTime == nil {
		delete(e.confirmBy, workerId)
		return Decision{Kind: DecisionCheckIn, WorkerId: workerId, At: now,
			Message: "check-in recorded"}
	}

	// Day already closed.
	if rec.CheckOutTime != nil {
		delete(e.confirmBy, workerId)
		return Decision{Kind: DecisionDayCompleted, WorkerId: workerId, At: now,
			Message: "day completed"}
	}

	// Armed confirmation window: a second scan inside it confirms the
	// early checkout; a lapsed window falls through to a fresh decision.
	if deadline, ok := e.confirmBy[workerId]; ok {
		delete(e.confirmBy, workerId)
		if !now.After(deadline) {
			log.Printf("   ✅ Early checkout confirmed for worker %d", workerId)
			return Decision{Kind: DecisionCheckOut, WorkerId: workerId, At: now,
				Message: "early checkout confirmed"}
		}
		log.Printf("   ⏱️ Confirmation window lapsed for worker %d", workerId)
	}

	elapsed := now.Sub(*rec.CheckInTime)
	switch {
	case elapsed >= e.cfg.FullShift:
		return Decision{Kind: DecisionCheckOut, WorkerId: workerId, At: now,
			Message: "check-out recorded"}

	case elapsed < e.cfg.MinShift:
		return Decision{Kind: DecisionTooEarly, WorkerId: workerId, At: now,
			Message: "too early to check out"}

	default:
		e.confirmBy[workerId] = now.Add(e.cfg.ConfirmWindow)
		return Decision{Kind: DecisionConfirmRequired, WorkerId: workerId, At: now,
			Message: "scan again within the window to confirm early checkout"}
	}
}

// Forgive clears a worker's cooldown and any armed confirmation after a
// failed store write, so the next tick can retry instead of reporting a
// state that was never persisted.
func (e *Engine) Forgive(workerId int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.suppress, workerId)
	delete(e.confirmBy, workerId)
}

// Reset drops all transient state (session teardown, midnight rollover).
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suppress = make(map[int64]time.Time)
	e.confirmBy = make(map[int64]time.Time)
}
