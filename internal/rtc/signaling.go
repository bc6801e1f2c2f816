package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"faceclock/internal/utils"
	"faceclock/models"

	"github.com/pion/webrtc/v4"
)

// ============================================================
// OFFER HANDLING
// ============================================================

func (m *Manager) handleOffer(session *peerSession, offerData string) error {
	log.Printf("📝 Session %s: processing offer...", session.id)

	// Decompress if needed
	if strings.HasPrefix(offerData, "H4sI") {
		decompressed, err := utils.DecompressGzip(offerData)
		if err != nil {
			return fmt.Errorf("decompress failed: %w", err)
		}
		offerData = decompressed
	}

	// Accept either a wrapped {type,sdp} object or a bare SDP string.
	var offer map[string]interface{}
	if err := json.Unmarshal([]byte(offerData), &offer); err != nil {
		offer = map[string]interface{}{
			"type": "offer",
			"sdp":  offerData,
		}
	}
	sdp, ok := offer["sdp"].(string)
	if !ok {
		return fmt.Errorf("invalid offer: missing sdp")
	}

	pc, err := m.createPeerConnection()
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	session.mu.Lock()
	session.pc = pc
	session.cancelFunc = cancel
	session.pendingICE = make([]webrtc.ICECandidateInit, 0, 10)
	session.iceReady = false
	session.mu.Unlock()

	m.setupPeerConnectionHandlers(session, pc, ctx)

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}); err != nil {
		m.cleanupSession(session.id)
		return fmt.Errorf("failed to set remote description: %w", err)
	}

	if m.audioCfg.Enabled {
		if err := m.setupAudioTrack(session, pc); err != nil {
			log.Printf("⚠️ Session %s: audio setup failed: %v", session.id, err)
		}
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		m.cleanupSession(session.id)
		return fmt.Errorf("failed to create answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		m.cleanupSession(session.id)
		return fmt.Errorf("failed to set local description: %w", err)
	}

	// Nudge the sender toward a bitrate the decoder pipeline keeps up with.
	patchedAnswer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  utils.PatchSDPForQuality(answer.SDP, 2500, 1500, 3000),
	}

	answerJSON, _ := json.Marshal(patchedAnswer)
	m.sendEnvelope(session, models.SignalEnvelope{
		Type:      models.SignalSDPAnswer,
		SessionId: session.id,
		Data:      utils.CompressGzip(string(answerJSON)),
	})

	// Flush ICE candidates that arrived before the answer was ready.
	session.mu.Lock()
	session.iceReady = true
	pendingCandidates := session.pendingICE
	session.pendingICE = nil
	session.mu.Unlock()

	if len(pendingCandidates) > 0 {
		log.Printf("📦 Session %s: applying %d pending ICE candidates", session.id, len(pendingCandidates))
		for i, candidate := range pendingCandidates {
			if err := pc.AddICECandidate(candidate); err != nil {
				log.Printf("⚠️ Pending ICE %d failed: %v", i+1, err)
			}
		}
	}

	log.Printf("✅ Session %s: answer sent", session.id)
	return nil
}

// ============================================================
// ICE CANDIDATE HANDLING
// ============================================================

func (m *Manager) handleICECandidate(session *peerSession, data string) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(data), &candidate); err != nil {
		return fmt.Errorf("invalid candidate: %w", err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.pc == nil || !session.iceReady {
		session.pendingICE = append(session.pendingICE, candidate)
		log.Printf("📦 Session %s: queued ICE (total: %d)", session.id, len(session.pendingICE))
		return nil
	}

	if err := session.pc.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add ICE: %w", err)
	}

	sdpMid := "unknown"
	if candidate.SDPMid != nil {
		sdpMid = *candidate.SDPMid
	}
	log.Printf("✅ Session %s: added ICE (sdpMid: %s)", session.id, sdpMid)
	return nil
}

// ============================================================
// OUTBOUND ICE
// ============================================================

func (m *Manager) sendICECandidate(session *peerSession, candidate *webrtc.ICECandidate) {
	candidateJSON, err := json.Marshal(candidate.ToJSON())
	if err != nil {
		log.Printf("⚠️ Session %s: ICE marshal failed: %v", session.id, err)
		return
	}
	m.sendEnvelope(session, models.SignalEnvelope{
		Type:      models.SignalICECandidate,
		SessionId: session.id,
		Data:      string(candidateJSON),
	})
}
