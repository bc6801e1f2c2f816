package rtc

import (
	"context"
	"sync"
	"time"

	"faceclock/internal/audio"
	"faceclock/internal/camera"
	"faceclock/internal/scanner"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

// ============================================================
// SIGNALING MANAGER
// ============================================================

// SessionFactory builds a scan session for a freshly connected kiosk. The
// publish callback pushes overlay status back over the kiosk's websocket;
// cues is nil when the kiosk negotiated no audio track.
type SessionFactory func(sessionId string, source camera.FrameSource, cues scanner.CuePlayer, publish func(interface{})) *scanner.Session

type Manager struct {
	sessions map[string]*peerSession
	mu       sync.RWMutex

	factory    SessionFactory
	audioCfg   audio.Config
	captureCfg CaptureConfig
	dimCfg     DimensionConfig
	bufferPool *bufferPool

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// ============================================================
// PEER SESSION STATE
// ============================================================

type peerSession struct {
	id string

	ws   *websocket.Conn
	wsMu sync.Mutex // websocket writes are not concurrency-safe

	pc          *webrtc.PeerConnection
	source      *TrackSource
	scan        *scanner.Session
	audioPlayer *audio.Player
	audioStop   chan struct{}

	cancelFunc  context.CancelFunc
	cleanupOnce sync.Once

	mu         sync.Mutex
	pendingICE []webrtc.ICECandidateInit
	iceReady   bool
}

// getScan is safe against the OnTrack goroutine that installs the session.
func (s *peerSession) getScan() *scanner.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan
}

// ============================================================
// DIMENSION & CAPTURE CONFIG
// ============================================================

type DimensionConfig struct {
	MaxDecodeWidth  int
	MaxDecodeHeight int
}

type CaptureConfig struct {
	PLIInterval     time.Duration
	DecodeInterval  time.Duration
	SampleBufferMax uint16
}

// ============================================================
// BUFFER POOL
// ============================================================

type bufferPool struct {
	pool sync.Pool
}
