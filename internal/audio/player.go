package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// ============================================================
// KIOSK AUDIO CUES
// ============================================================
//
// Short OGG/Opus cues streamed back to the kiosk over its WebRTC audio
// track: a welcome tone on connect, success and fail tones on decisions.

type Config struct {
	Enabled     bool
	WelcomePath string
	SuccessPath string
	FailPath    string
}

// Cue is one queued playback request.
type Cue struct {
	FilePath string
	Name     string
}

// Player streams cues onto one peer connection's audio track. Cues queue
// rather than interrupt; the queue is small because cues are short.
type Player struct {
	track    *webrtc.TrackLocalStaticSample
	cfg      Config
	stopChan chan struct{}
	queue    chan Cue

	mu      sync.Mutex
	playing string
}

func NewPlayer(track *webrtc.TrackLocalStaticSample, cfg Config, stopChan chan struct{}) *Player {
	p := &Player{
		track:    track,
		cfg:      cfg,
		stopChan: stopChan,
		queue:    make(chan Cue, 10),
	}
	go p.processQueue()
	return p
}

// PlayWelcome greets the kiosk once the peer connection is up.
func (p *Player) PlayWelcome() { p.enqueue(Cue{FilePath: p.cfg.WelcomePath, Name: "welcome"}) }

// PlaySuccess signals a recorded check-in or check-out.
func (p *Player) PlaySuccess() { p.enqueue(Cue{FilePath: p.cfg.SuccessPath, Name: "success"}) }

// PlayFail signals a rejected or failed scan.
func (p *Player) PlayFail() { p.enqueue(Cue{FilePath: p.cfg.FailPath, Name: "fail"}) }

func (p *Player) enqueue(cue Cue) {
	if !p.cfg.Enabled || cue.FilePath == "" {
		return
	}
	select {
	case p.queue <- cue:
		log.Printf("🎵 Queued cue: %s", cue.Name)
	case <-p.stopChan:
	default:
		log.Printf("⚠️ Cue queue full, skipping: %s", cue.Name)
	}
}

func (p *Player) processQueue() {
	for {
		select {
		case <-p.stopChan:
			log.Println("🛑 Audio player stopped")
			return
		case cue := <-p.queue:
			p.playCue(cue)
		}
	}
}

func (p *Player) playCue(cue Cue) {
	p.mu.Lock()
	p.playing = cue.Name
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.playing = ""
		p.mu.Unlock()
	}()

	log.Printf("▶️ Playing cue: %s", cue.Name)
	if err := p.streamOGG(cue.FilePath); err != nil && err != io.EOF {
		log.Printf("❌ Cue %s failed: %v", cue.Name, err)
	}
}

// streamOGG pushes one OGG/Opus file onto the track page by page, pacing
// writes by granule position to keep real-time playback.
func (p *Player) streamOGG(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	ogg, _, err := oggreader.NewWith(file)
	if err != nil {
		return fmt.Errorf("cannot create OGG reader: %w", err)
	}

	var lastGranule uint64
	for {
		select {
		case <-p.stopChan:
			return fmt.Errorf("stopped")
		default:
		}

		pageData, pageHeader, err := ogg.ParseNextPage()
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return err
		}

		// Opus runs at 48kHz; derive the page duration from the granule delta.
		sampleDuration := time.Duration(0)
		if pageHeader.GranulePosition > lastGranule && lastGranule != 0 {
			sampleCount := pageHeader.GranulePosition - lastGranule
			sampleDuration = time.Duration((float64(sampleCount)/48000)*1000) * time.Millisecond
		}
		lastGranule = pageHeader.GranulePosition
		if sampleDuration == 0 {
			sampleDuration = 20 * time.Millisecond
		}

		if err := p.track.WriteSample(media.Sample{
			Data:     pageData,
			Duration: sampleDuration,
		}); err != nil {
			return err
		}
		time.Sleep(sampleDuration)
	}
}
