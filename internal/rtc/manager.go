package rtc

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"faceclock/internal/audio"
	"faceclock/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ============================================================
// MANAGER INITIALIZATION
// ============================================================

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS middleware in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewManager(factory SessionFactory, audioCfg audio.Config) *Manager {
	return &Manager{
		sessions:   make(map[string]*peerSession),
		factory:    factory,
		audioCfg:   audioCfg,
		captureCfg: DefaultCaptureConfig(),
		dimCfg:     DefaultDimensionConfig(),
		bufferPool: newBufferPool(),
		shutdown:   make(chan struct{}),
	}
}

// ============================================================
// WEBSOCKET SIGNALING ENDPOINT
// ============================================================

// HandleWS upgrades one kiosk connection and runs its signaling loop until
// the socket drops or a quit signal arrives.
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	sessionId := uuid.NewString()
	session := &peerSession{
		id:        sessionId,
		ws:        ws,
		audioStop: make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[sessionId] = session
	m.mu.Unlock()

	log.Printf("🎧 Kiosk connected, session %s", sessionId)
	m.sendEnvelope(session, models.SignalEnvelope{
		Type:      models.SignalStatus,
		SessionId: sessionId,
		Data:      `{"state":"scanning","message":"connected"}`,
	})

	m.readLoop(session)
	m.cleanupSession(sessionId)
}

func (m *Manager) readLoop(session *peerSession) {
	for {
		_, raw, err := session.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("⚠️ Session %s: read error: %v", session.id, err)
			}
			return
		}

		var envelope models.SignalEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Printf("⚠️ Session %s: bad envelope: %v", session.id, err)
			continue
		}

		switch envelope.Type {
		case models.SignalSDPOffer:
			if err := m.handleOffer(session, envelope.Data); err != nil {
				log.Printf("❌ Session %s: offer failed: %v", session.id, err)
			}
		case models.SignalICECandidate:
			if err := m.handleICECandidate(session, envelope.Data); err != nil {
				log.Printf("⚠️ Session %s: ICE failed: %v", session.id, err)
			}
		case models.SignalLocation:
			m.handleLocation(session, envelope.Data)
		case models.SignalLandmarks:
			m.handleLandmarks(session, envelope.Data)
		case models.SignalQuit:
			log.Printf("👋 Session %s: quit signal", session.id)
			return
		default:
			log.Printf("⚠️ Session %s: unknown signal type %d", session.id, envelope.Type)
		}
	}
}

// ============================================================
// KIOSK DATA SIGNALS
// ============================================================

func (m *Manager) handleLocation(session *peerSession, data string) {
	var sample models.LocationSample
	if err := json.Unmarshal([]byte(data), &sample); err != nil {
		log.Printf("⚠️ Session %s: bad location payload: %v", session.id, err)
		return
	}
	if scan := session.getScan(); scan != nil {
		scan.PushLocation(sample)
	}
}

func (m *Manager) handleLandmarks(session *peerSession, data string) {
	var lm models.Landmarks
	if err := json.Unmarshal([]byte(data), &lm); err != nil {
		log.Printf("⚠️ Session %s: bad landmarks payload: %v", session.id, err)
		return
	}
	if scan := session.getScan(); scan != nil {
		scan.PushLandmarks(lm)
	}
}

// ============================================================
// OUTBOUND SIGNALING
// ============================================================

// sendEnvelope serializes websocket writes; gorilla allows one writer at a
// time.
func (m *Manager) sendEnvelope(session *peerSession, envelope models.SignalEnvelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("⚠️ Session %s: envelope marshal: %v", session.id, err)
		return
	}

	session.wsMu.Lock()
	defer session.wsMu.Unlock()
	if err := session.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("⚠️ Session %s: write failed: %v", session.id, err)
	}
}

// publishStatus pushes an overlay status update to the kiosk.
func (m *Manager) publishStatus(session *peerSession, status interface{}) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	m.sendEnvelope(session, models.SignalEnvelope{
		Type:      models.SignalStatus,
		SessionId: session.id,
		Data:      string(data),
	})
}

// ============================================================
// SESSION CLEANUP
// ============================================================

func (m *Manager) cleanupSession(sessionId string) {
	m.mu.Lock()
	session, exists := m.sessions[sessionId]
	if !exists {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, sessionId)
	m.mu.Unlock()

	session.cleanupOnce.Do(func() {
		log.Printf("🧹 Cleaning up session %s", sessionId)

		session.mu.Lock()
		cancel := session.cancelFunc
		scan := session.scan
		pc := session.pc
		session.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if scan != nil {
			scan.Close()
		}
		session.closeAudioStop()
		if pc != nil {
			if err := pc.Close(); err != nil {
				log.Printf("   ⚠️ PC close: %v", err)
			}
		}
		session.ws.Close()

		log.Printf("   ✅ Session %s cleanup complete", sessionId)
	})
}

func (s *peerSession) closeAudioStop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audioStop != nil {
		select {
		case <-s.audioStop:
			// Already closed
		default:
			close(s.audioStop)
		}
	}
}

// ============================================================
// SHUTDOWN
// ============================================================

func (m *Manager) CloseAll() {
	m.shutdownOnce.Do(func() {
		close(m.shutdown)
		log.Println("🛑 Signaling shutdown starting...")

		m.mu.Lock()
		ids := make([]string, 0, len(m.sessions))
		for id := range m.sessions {
			ids = append(ids, id)
		}
		m.mu.Unlock()

		done := make(chan struct{})
		go func() {
			var wg sync.WaitGroup
			for _, id := range ids {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					m.cleanupSession(id)
				}(id)
			}
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("   ✅ All sessions closed")
		case <-time.After(5 * time.Second):
			log.Println("   ⚠️ Shutdown timeout")
		}
	})
}
