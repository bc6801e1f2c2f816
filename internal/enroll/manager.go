package enroll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"faceclock/internal/camera"
	"faceclock/internal/descriptor"
	"faceclock/internal/extractor"
	"faceclock/internal/matcher"
	"faceclock/internal/quality"
	"faceclock/models"
)

// ============================================================
// ENROLLMENT MANAGER
// ============================================================
//
// Drives capture sessions against a frame source: polls frames, feeds the
// pose state machine, and persists the result when the sequence completes.

// WorkerStore is what the manager needs from the worker repository.
type WorkerStore interface {
	ListActiveCandidates() ([]matcher.Candidate, error)
	SaveEnrollment(workerId int64, desc descriptor.Descriptor, photoPath string, now time.Time) error
}

// Progress is the live view of one running session, served over HTTP.
type Progress struct {
	SessionId    string `json:"session_id"`
	WorkerId     int64  `json:"worker_id"`
	State        string `json:"state"` // capturing | done | failed | canceled
	RequiredPose string `json:"required_pose,omitempty"`
	Captured     int    `json:"captured"`
	Error        string `json:"error,omitempty"`
}

type running struct {
	session  *Session
	workerId int64
	cancel   context.CancelFunc

	mu       sync.Mutex
	state    string
	captured int
	lastErr  string
}

type Manager struct {
	cfg       models.EnrollConfig
	extractor *extractor.Extractor
	workers   WorkerStore
	photoDir  string

	mu       sync.Mutex
	sessions map[string]*running
}

func NewManager(cfg models.EnrollConfig, ext *extractor.Extractor, workers WorkerStore, photoDir string) *Manager {
	return &Manager{
		cfg:       cfg,
		extractor: ext,
		workers:   workers,
		photoDir:  photoDir,
		sessions:  make(map[string]*running),
	}
}

// Start begins a capture session for the worker and drives it in the
// background until it completes, expires, or is canceled. The source is
// released when the session ends.
func (m *Manager) Start(ctx context.Context, workerId int64, workerName string, source camera.FrameSource) (string, error) {
	session := NewSession(m.cfg, workerName, time.Now())

	ctx, cancel := context.WithCancel(ctx)
	run := &running{
		session:  session,
		workerId: workerId,
		cancel:   cancel,
		state:    "capturing",
	}

	m.mu.Lock()
	m.sessions[session.Id] = run
	m.mu.Unlock()

	log.Printf("📝 Enrollment session %s started for worker %d", session.Id, workerId)
	go m.drive(ctx, run, source)
	return session.Id, nil
}

// Cancel aborts a running session.
func (m *Manager) Cancel(sessionId string) error {
	m.mu.Lock()
	run, exists := m.sessions[sessionId]
	m.mu.Unlock()
	if !exists {
		return errors.New("session not found")
	}

	run.session.Cancel()
	run.cancel()
	run.setState("canceled", "")
	log.Printf("🛑 Enrollment session %s canceled", sessionId)
	return nil
}

// Status reports progress for one session.
func (m *Manager) Status(sessionId string) (Progress, error) {
	m.mu.Lock()
	run, exists := m.sessions[sessionId]
	m.mu.Unlock()
	if !exists {
		return Progress{}, errors.New("session not found")
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return Progress{
		SessionId:    sessionId,
		WorkerId:     run.workerId,
		State:        run.state,
		RequiredPose: string(run.session.RequiredPose()),
		Captured:     run.captured,
		Error:        run.lastErr,
	}, nil
}

// ============================================================
// CAPTURE LOOP
// ============================================================

func (m *Manager) drive(ctx context.Context, run *running, source camera.FrameSource) {
	defer source.Close()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if run.session.Expired(now) {
				run.setState("failed", "session deadline passed")
				log.Printf("⏱️ Enrollment session %s expired", run.session.Id)
				return
			}

			done, err := m.captureTick(run, now, source)
			if err != nil {
				if errors.Is(err, ErrSessionExpired) {
					run.setState("failed", "session deadline passed")
					return
				}
				log.Printf("⚠️ Enrollment session %s: %v", run.session.Id, err)
				continue
			}
			if done {
				m.finish(run)
				return
			}
		}
	}
}

func (m *Manager) captureTick(run *running, now time.Time, source camera.FrameSource) (bool, error) {
	frame, ok := source.Frame()
	if !ok {
		return false, nil
	}
	defer frame.Close()

	ext, err := m.extractor.Extract(frame)
	if err != nil {
		return false, err
	}
	if ext == nil {
		return false, nil
	}

	// Only well-lit, sharp, close-enough captures feed the reference
	// descriptor.
	if report := quality.CheckQuality(frame, &ext.FaceBox); !report.IsGood {
		return false, nil
	}

	accepted, done, err := run.session.Offer(ext, now)
	if err != nil {
		return false, err
	}
	if accepted {
		run.mu.Lock()
		run.captured++
		captured := run.captured
		run.mu.Unlock()
		log.Printf("   📸 Session %s captured pose %d (%s)", run.session.Id, captured, ext.HeadPose)
	}
	return done, nil
}

func (m *Manager) finish(run *running) {
	enrolled, err := m.workers.ListActiveCandidates()
	if err != nil {
		run.setState("failed", "could not load enrolled workers")
		return
	}

	result, err := run.session.Finalize(enrolled, m.cfg.DuplicateThreshold)
	if err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			run.setState("failed", dup.Error())
			log.Printf("❌ Enrollment rejected: %v", dup)
			return
		}
		run.setState("failed", err.Error())
		return
	}

	photoPath, err := m.writePhoto(run.workerId, result.PhotoJPEG)
	if err != nil {
		log.Printf("⚠️ Enrollment photo write failed: %v", err)
		photoPath = ""
	}

	if err := m.workers.SaveEnrollment(run.workerId, result.Descriptor, photoPath, time.Now()); err != nil {
		run.setState("failed", "could not save enrollment")
		log.Printf("❌ Enrollment save failed for worker %d: %v", run.workerId, err)
		return
	}

	run.setState("done", "")
	log.Printf("✅ Enrollment complete for worker %d", run.workerId)
}

func (m *Manager) writePhoto(workerId int64, jpeg []byte) (string, error) {
	if len(jpeg) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(m.photoDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(m.photoDir, fmt.Sprintf("worker_%d.jpg", workerId))
	if err := os.WriteFile(path, jpeg, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *running) setState(state, errMsg string) {
	r.mu.Lock()
	r.state = state
	r.lastErr = errMsg
	r.mu.Unlock()
}
