package rtc

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"faceclock/internal/audio"
	"faceclock/internal/scanner"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

// ============================================================
// PEER CONNECTION CREATION
// ============================================================

func (m *Manager) createPeerConnection() (*webrtc.PeerConnection, error) {
	mediaEngine := &webrtc.MediaEngine{}

	// Register VP8 video codec
	if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:  webrtc.MimeTypeVP8,
			ClockRate: 90000,
			RTCPFeedback: []webrtc.RTCPFeedback{
				{Type: "goog-remb"},
				{Type: "ccm", Parameter: "fir"},
				{Type: "nack"},
				{Type: "nack", Parameter: "pli"},
			},
		},
		PayloadType: 96,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, fmt.Errorf("failed to register VP8: %w", err)
	}

	// Register Opus audio codec
	if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeOpus,
			ClockRate:   48000,
			Channels:    2,
			SDPFmtpLine: "minptime=10;useinbandfec=1",
		},
		PayloadType: 111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("failed to register Opus: %w", err)
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine))

	config := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
			{URLs: []string{"stun:stun1.l.google.com:19302"}},
		},
	}

	return api.NewPeerConnection(config)
}

// ============================================================
// PEER CONNECTION HANDLERS
// ============================================================

func (m *Manager) setupPeerConnectionHandlers(session *peerSession, pc *webrtc.PeerConnection, ctx context.Context) {
	// Trickle ICE back over the signaling websocket.
	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			log.Printf("✅ Session %s: ICE gathering complete", session.id)
			return
		}
		m.sendICECandidate(session, candidate)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("🔗 Session %s: connection %s", session.id, state.String())
		switch state {
		case webrtc.PeerConnectionStateConnected:
			log.Printf("🎉 Session %s: WebRTC connected", session.id)
			if session.audioPlayer != nil {
				session.audioPlayer.PlayWelcome()
			}

		case webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateFailed:
			log.Printf("🔴 Session %s: connection %s", session.id, state.String())
			m.cleanupSession(session.id)
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Printf("🎬 Session %s: track %s (codec: %s)", session.id, track.Kind().String(), track.Codec().MimeType)

		if track.Kind() != webrtc.RTPCodecTypeVideo || !strings.Contains(track.Codec().MimeType, "VP8") {
			return
		}

		ssrc := uint32(track.SSRC())

		// Immediate PLI burst to force an early keyframe.
		go func() {
			for i := 0; i < 3; i++ {
				if err := pc.WriteRTCP([]rtcp.Packet{
					&rtcp.PictureLossIndication{MediaSSRC: ssrc},
				}); err == nil {
					log.Println("   ⚡ Immediate PLI sent")
				}
				time.Sleep(100 * time.Millisecond)
			}
		}()

		go m.startPLISender(ctx, session.id, pc, ssrc)

		// Wire the video track into a frame source and hand it to a scan
		// session.
		source := NewTrackSource(m.captureCfg, m.dimCfg, m.bufferPool)
		go source.pump(ctx, track)

		// A typed-nil player must not become a non-nil interface.
		var cues scanner.CuePlayer
		session.mu.Lock()
		if session.audioPlayer != nil {
			cues = session.audioPlayer
		}
		session.mu.Unlock()

		scan := m.factory(session.id, source, cues, func(status interface{}) {
			m.publishStatus(session, status)
		})

		session.mu.Lock()
		session.source = source
		session.scan = scan
		session.mu.Unlock()

		scan.Start(ctx)
	})
}

// ============================================================
// AUDIO TRACK SETUP
// ============================================================

func (m *Manager) setupAudioTrack(session *peerSession, pc *webrtc.PeerConnection) error {
	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"kiosk-audio-stream",
	)
	if err != nil {
		return fmt.Errorf("failed to create audio track: %w", err)
	}

	rtpSender, err := pc.AddTrack(audioTrack)
	if err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	// Drain RTCP so interceptors keep running.
	go func() {
		rtcpBuf := make([]byte, 1500)
		for {
			if _, _, rtcpErr := rtpSender.Read(rtcpBuf); rtcpErr != nil {
				return
			}
		}
	}()

	session.mu.Lock()
	session.audioPlayer = audio.NewPlayer(audioTrack, m.audioCfg, session.audioStop)
	session.mu.Unlock()

	log.Printf("   ✅ Session %s: audio track ready", session.id)
	return nil
}

// ============================================================
// PLI SENDER
// ============================================================

func (m *Manager) startPLISender(ctx context.Context, sessionId string, pc *webrtc.PeerConnection, ssrc uint32) {
	ticker := time.NewTicker(m.captureCfg.PLIInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	maxErrors := 3

	defer func() {
		log.Printf("   🛑 PLI sender stopped for %s", sessionId)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			state := pc.ConnectionState()
			if state == webrtc.PeerConnectionStateClosed ||
				state == webrtc.PeerConnectionStateFailed {
				return
			}

			if err := pc.WriteRTCP([]rtcp.Packet{
				&rtcp.PictureLossIndication{MediaSSRC: ssrc},
			}); err != nil {
				consecutiveErrors++
				if consecutiveErrors >= maxErrors {
					log.Printf("   ⚠️ PLI stopping (errors: %d)", consecutiveErrors)
					return
				}
			} else {
				consecutiveErrors = 0
			}
		}
	}
}
