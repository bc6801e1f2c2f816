package rtc

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
	"gocv.io/x/gocv"
)

// ============================================================
// REMOTE TRACK FRAME SOURCE
// ============================================================

// TrackSource turns a remote VP8 track into an on-demand frame source. An
// RTP pump keeps decoding keyframes in the background; Frame hands out a
// copy of the most recent one.
type TrackSource struct {
	captureCfg CaptureConfig
	dimCfg     DimensionConfig
	bufferPool *bufferPool

	mu     sync.Mutex
	latest gocv.Mat
	has    bool
	closed bool
}

func NewTrackSource(captureCfg CaptureConfig, dimCfg DimensionConfig, pool *bufferPool) *TrackSource {
	return &TrackSource{
		captureCfg: captureCfg,
		dimCfg:     dimCfg,
		bufferPool: pool,
	}
}

// Frame returns a copy of the latest decoded frame. ok is false until the
// first keyframe lands or after Close.
func (t *TrackSource) Frame() (gocv.Mat, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || !t.has {
		return gocv.Mat{}, false
	}
	return t.latest.Clone(), true
}

// Close drops the cached frame. The RTP pump exits via its context.
func (t *TrackSource) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.has {
		t.latest.Close()
		t.has = false
	}
	return nil
}

// ============================================================
// RTP PUMP
// ============================================================

// pump reads RTP off the track, reassembles VP8 frames, and decodes
// keyframes into the latest-frame slot. Decodes are rate-limited; the scan
// loop does not need more than a few frames per second.
func (t *TrackSource) pump(ctx context.Context, track *webrtc.TrackRemote) {
	log.Println("📸 Video pump started")
	defer log.Println("   🧹 Video pump stopped")

	builder := samplebuilder.New(
		t.captureCfg.SampleBufferMax,
		&codecs.VP8Packet{},
		track.Codec().ClockRate,
	)

	var lastDecode time.Time
	firstKeyframe := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pkt, _, err := track.ReadRTP()
		if err != nil {
			if !strings.Contains(err.Error(), "closed") {
				log.Printf("   ⚠️ RTP error: %v", err)
			}
			return
		}

		builder.Push(pkt)
		sample := builder.Pop()
		if sample == nil {
			continue
		}

		if !isVP8Keyframe(sample.Data) {
			continue
		}
		if !firstKeyframe {
			firstKeyframe = true
			log.Println("   ✅ First keyframe received")
		}

		if time.Since(lastDecode) < t.captureCfg.DecodeInterval {
			continue
		}

		img, err := t.vp8FrameToMat(sample.Data)
		if err != nil {
			continue
		}
		lastDecode = time.Now()
		t.store(img)
	}
}

func (t *TrackSource) store(img *gocv.Mat) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		img.Close()
		return
	}
	if t.has {
		t.latest.Close()
	}
	t.latest = *img
	t.has = true
}
