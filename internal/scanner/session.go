package scanner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"faceclock/internal/attendance"
	"faceclock/internal/camera"
	"faceclock/internal/extractor"
	"faceclock/internal/geofence"
	"faceclock/internal/matcher"
	"faceclock/internal/quality"
	"faceclock/models"
)

// ============================================================
// SCAN SESSION
// ============================================================
//
// One session per connected kiosk. Two loops run against the same frame
// source: a recognition loop (heavy, at most one pass in flight) and a
// tracker loop (light, repaints the face box on the overlay).

// AttendanceStore is the subset of the attendance repository the session
// needs.
type AttendanceStore interface {
	TodayRecord(workerId int64, day time.Time) (*models.AttendanceRecord, error)
	CheckIn(workerId int64, at time.Time) (*models.AttendanceRecord, error)
	CheckOut(workerId int64, at time.Time) error
}

// CandidateSource provides the enrolled fleet for matching.
type CandidateSource interface {
	ListActiveCandidates() ([]matcher.Candidate, error)
}

// SiteDirectory provides geofence boundaries and per-worker overrides.
type SiteDirectory interface {
	ActiveSites() []models.Site
	HasActiveOverride(workerId int64, now time.Time) (bool, error)
	RecordSpoofEvent(ev *models.SpoofEvent)
}

// CuePlayer plays audible feedback on the kiosk. Optional.
type CuePlayer interface {
	PlaySuccess()
	PlayFail()
}

// Deps bundles everything a session needs from the outside.
type Deps struct {
	Source     camera.FrameSource
	Extractor  *extractor.Extractor
	Engine     *attendance.Engine
	Workers    CandidateSource
	Attendance AttendanceStore
	Sites      SiteDirectory
	Cues       CuePlayer
	Publish    func(models.ScanStatus)
}

type Session struct {
	Id      string
	cfg     models.ScannerConfig
	deps    Deps
	gate    *LocationGate
	scanOut atomic.Bool // recognition pass in flight

	mu        sync.RWMutex
	lastBox   *models.FaceBox
	challenge *quality.Challenge
	pending   *models.MatchResult // match waiting on its liveness challenge

	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewSession(id string, cfg models.ScannerConfig, geoCfg models.GeofenceConfig, deps Deps) *Session {
	return &Session{
		Id:   id,
		cfg:  cfg,
		deps: deps,
		gate: NewLocationGate(geoCfg),
	}
}

// Start launches the recognition and tracker loops.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.scanLoop(ctx)
	go s.trackLoop(ctx)
	log.Printf("🎬 Scan session %s started", s.Id)
}

// Close tears the session down and releases the frame source.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if err := s.deps.Source.Close(); err != nil {
			log.Printf("⚠️ Session %s: frame source close: %v", s.Id, err)
		}
		log.Printf("🛑 Scan session %s closed", s.Id)
	})
}

// PushLocation feeds one GPS reading from the kiosk into the gate.
func (s *Session) PushLocation(sample models.LocationSample) {
	result := s.gate.Push(sample)
	if result.IsSpoofed {
		s.deps.Sites.RecordSpoofEvent(&models.SpoofEvent{
			SessionId:  s.Id,
			Reason:     result.Reason,
			Confidence: result.Confidence,
			Lat:        sample.Lat,
			Lng:        sample.Lng,
		})
		s.publish(models.ScanStatus{State: "blocked", Message: "location rejected: " + result.Reason})
	}
}

// PushLandmarks feeds one landmark frame into the active liveness challenge.
func (s *Session) PushLandmarks(lm models.Landmarks) {
	s.mu.RLock()
	challenge := s.challenge
	s.mu.RUnlock()

	if challenge == nil {
		return
	}
	if challenge.ObserveFrame(lm) {
		log.Printf("   ✅ Liveness challenge %s passed", challenge.Kind)
	}
}

// ============================================================
// TRACKER LOOP
// ============================================================

// trackLoop repaints the overlay box between recognition passes. Read-only;
// it never touches the camera or the models.
func (s *Session) trackLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TrackInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			box := s.lastBox
			s.mu.RUnlock()
			if box != nil {
				s.publish(models.ScanStatus{State: "scanning", Box: box})
			}
		}
	}
}

// ============================================================
// RECOGNITION LOOP
// ============================================================

func (s *Session) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Skip the tick entirely if the previous pass is still running.
			if !s.scanOut.CompareAndSwap(false, true) {
				continue
			}
			s.scanTick(time.Now())
			s.scanOut.Store(false)
		}
	}
}

func (s *Session) scanTick(now time.Time) {
	frame, ok := s.deps.Source.Frame()
	if !ok {
		return
	}
	defer frame.Close()

	ext, err := s.deps.Extractor.Extract(frame)
	if err != nil {
		log.Printf("❌ Session %s: extraction failed: %v", s.Id, err)
		return
	}
	if ext == nil {
		s.setBox(nil)
		return
	}
	s.setBox(&ext.FaceBox)

	report := quality.CheckQuality(frame, &ext.FaceBox)
	if !report.IsGood {
		s.publish(models.ScanStatus{State: "scanning", Box: &ext.FaceBox,
			Message: "adjust: " + report.Issues[0]})
		return
	}

	candidates, err := s.deps.Workers.ListActiveCandidates()
	if err != nil {
		log.Printf("❌ Session %s: candidate load failed: %v", s.Id, err)
		return
	}
	match := matcher.FindBestMatch(ext.Descriptor, candidates, s.cfg.MatchThreshold)
	if match == nil {
		s.publish(models.ScanStatus{State: "scanning", Box: &ext.FaceBox,
			Message: "face not recognized"})
		return
	}

	if s.cfg.LivenessRequired && !s.livenessCleared(match) {
		return
	}

	s.decide(match, now, &ext.FaceBox)
}

// livenessCleared runs the challenge gate for the matched worker. Returns
// true only once the worker's active challenge has been passed.
func (s *Session) livenessCleared(match *models.MatchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A different face showed up mid-challenge: restart for the new worker.
	if s.pending != nil && s.pending.WorkerId != match.WorkerId {
		s.challenge = nil
		s.pending = nil
	}

	if s.challenge == nil {
		s.challenge = quality.NewChallenge(s.cfg.LivenessWindow)
		s.pending = match
		log.Printf("🎭 Liveness challenge for %s: %s", match.WorkerName, s.challenge.Kind)
		s.publish(models.ScanStatus{State: "challenge", Match: match,
			Challenge: string(s.challenge.Kind),
			Message:   "perform the gesture to continue"})
		return false
	}

	if s.challenge.Passed() {
		s.challenge = nil
		s.pending = nil
		return true
	}

	if s.challenge.Expired() {
		log.Printf("   ❌ Liveness challenge expired for %s", match.WorkerName)
		s.challenge = nil
		s.pending = nil
		s.publish(models.ScanStatus{State: "blocked", Match: match,
			Message: "liveness check failed, try again"})
		if s.deps.Cues != nil {
			s.deps.Cues.PlayFail()
		}
		return false
	}

	// Still inside the window; keep reminding the overlay.
	s.publish(models.ScanStatus{State: "challenge", Match: match,
		Challenge: string(s.challenge.Kind)})
	return false
}

// decide applies the geofence gate and maps the recognition onto an
// attendance transition, persisting what needs persisting.
func (s *Session) decide(match *models.MatchResult, now time.Time, box *models.FaceBox) {
	if !s.geofenceCleared(match, now) {
		return
	}

	rec, err := s.deps.Attendance.TodayRecord(match.WorkerId, now)
	if err != nil {
		log.Printf("❌ Session %s: attendance lookup failed: %v", s.Id, err)
		return
	}

	decision := s.deps.Engine.Decide(match.WorkerId, rec, now)
	if decision.Kind == attendance.DecisionCooldown {
		return
	}

	if err := s.persist(decision, now); err != nil {
		log.Printf("❌ Session %s: %v", s.Id, err)
		s.deps.Engine.Forgive(match.WorkerId)
		s.publish(models.ScanStatus{State: "blocked", Match: match,
			Message: "could not save, scan again"})
		if s.deps.Cues != nil {
			s.deps.Cues.PlayFail()
		}
		return
	}

	log.Printf("✅ %s → %s for %s", s.Id, decision.Kind, match.WorkerName)
	s.publish(models.ScanStatus{State: "decided", Box: box, Match: match,
		Message: decision.Message})
	if s.deps.Cues != nil {
		switch decision.Kind {
		case attendance.DecisionCheckIn, attendance.DecisionCheckOut:
			s.deps.Cues.PlaySuccess()
		case attendance.DecisionTooEarly:
			s.deps.Cues.PlayFail()
		}
	}
}

// geofenceCleared enforces the fail-closed location gate, honoring active
// per-worker overrides.
func (s *Session) geofenceCleared(match *models.MatchResult, now time.Time) bool {
	sample := s.gate.Current(now)
	if sample == nil {
		problem := s.gate.LastProblem()
		msg := "waiting for a usable location"
		if problem.Reason != "" {
			msg = "location blocked: " + problem.Reason
		}
		s.publish(models.ScanStatus{State: "blocked", Match: match, Message: msg})
		return false
	}

	verdict := geofence.Evaluate(sample.Lat, sample.Lng, s.deps.Sites.ActiveSites())
	if verdict.Inside {
		return true
	}

	override, err := s.deps.Sites.HasActiveOverride(match.WorkerId, now)
	if err != nil {
		log.Printf("⚠️ Session %s: override check failed: %v", s.Id, err)
	}
	if override {
		log.Printf("📍 Worker %d outside geofence but override active", match.WorkerId)
		return true
	}

	s.publish(models.ScanStatus{State: "blocked", Match: match,
		Message: fmt.Sprintf("outside work zone, %.0fm past %s", verdict.DistanceM, verdict.SiteName)})
	return false
}

func (s *Session) persist(decision attendance.Decision, now time.Time) error {
	switch decision.Kind {
	case attendance.DecisionCheckIn:
		if _, err := s.deps.Attendance.CheckIn(decision.WorkerId, now); err != nil {
			return fmt.Errorf("check-in write failed: %w", err)
		}
	case attendance.DecisionCheckOut:
		if err := s.deps.Attendance.CheckOut(decision.WorkerId, now); err != nil {
			return fmt.Errorf("check-out write failed: %w", err)
		}
	}
	return nil
}

func (s *Session) setBox(box *models.FaceBox) {
	s.mu.Lock()
	s.lastBox = box
	s.mu.Unlock()
}

func (s *Session) publish(status models.ScanStatus) {
	if s.deps.Publish != nil {
		s.deps.Publish(status)
	}
}
