package quality

import (
	"testing"
	"time"

	"faceclock/models"
)

func openEye(x float64) []models.Point2D {
	// Horizontal width 40, vertical opening ~14: EAR ≈ 0.35.
	return []models.Point2D{
		{X: x, Y: 100}, {X: x + 12, Y: 93}, {X: x + 26, Y: 93},
		{X: x + 40, Y: 100}, {X: x + 26, Y: 107}, {X: x + 12, Y: 107},
	}
}

func closedEye(x float64) []models.Point2D {
	// Same width, vertical opening ~4: EAR ≈ 0.1.
	return []models.Point2D{
		{X: x, Y: 100}, {X: x + 12, Y: 98}, {X: x + 26, Y: 98},
		{X: x + 40, Y: 100}, {X: x + 26, Y: 102}, {X: x + 12, Y: 102},
	}
}

func neutralFace() models.Landmarks {
	return models.Landmarks{
		LeftEye:     openEye(160),
		RightEye:    openEye(80),
		NoseTip:     models.Point2D{X: 140, Y: 150},
		MouthLeft:   models.Point2D{X: 110, Y: 190},
		MouthRight:  models.Point2D{X: 170, Y: 190},
		UpperLipTop: models.Point2D{X: 140, Y: 185},
		LowerLipBot: models.Point2D{X: 140, Y: 196},
		UpperLipMid: models.Point2D{X: 140, Y: 188},
		CheekLeft:   models.Point2D{X: 80, Y: 150},
		CheekRight:  models.Point2D{X: 200, Y: 150},
		HasFace:     true,
	}
}

func TestDetectBlink(t *testing.T) {
	open := neutralFace()
	if DetectBlink(open) {
		t.Error("open eyes should not register a blink")
	}

	blink := neutralFace()
	blink.LeftEye = closedEye(160)
	blink.RightEye = closedEye(80)
	if !DetectBlink(blink) {
		t.Error("closed eyes should register a blink")
	}

	blink.HasFace = false
	if DetectBlink(blink) {
		t.Error("no face must never pass a liveness detector")
	}
}

func TestDetectSmile(t *testing.T) {
	if DetectSmile(neutralFace()) {
		t.Error("neutral mouth should not register a smile")
	}

	smile := neutralFace()
	smile.MouthLeft.Y = 180
	smile.MouthRight.Y = 180 // corners lifted 8px above lip center, width 60
	if !DetectSmile(smile) {
		t.Error("lifted mouth corners should register a smile")
	}
}

func TestDetectMouthOpen(t *testing.T) {
	if DetectMouthOpen(neutralFace()) {
		t.Error("closed mouth should not register as open")
	}

	open := neutralFace()
	open.UpperLipTop.Y = 180
	open.LowerLipBot.Y = 215 // gap 35 over width 60 ≈ 0.58
	if !DetectMouthOpen(open) {
		t.Error("wide lip gap should register as open mouth")
	}
}

func TestDetectHeadTurn(t *testing.T) {
	tests := []struct {
		name  string
		noseX float64
		want  string
	}{
		{"centered", 140, "center"},
		{"toward left cheek", 100, "left"},
		{"toward right cheek", 180, "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := neutralFace()
			lm.NoseTip.X = tt.noseX
			if got := DetectHeadTurn(lm); got != tt.want {
				t.Errorf("DetectHeadTurn = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChallengeWindow(t *testing.T) {
	c := NewChallenge(50 * time.Millisecond)
	c.Kind = ChallengeBlink

	if c.ObserveFrame(neutralFace()) {
		t.Error("neutral face should not pass a blink challenge")
	}

	blink := neutralFace()
	blink.LeftEye = closedEye(160)
	blink.RightEye = closedEye(80)
	if !c.ObserveFrame(blink) {
		t.Error("blink inside the window should pass")
	}
	if !c.Passed() {
		t.Error("challenge should stay passed")
	}

	turn := NewChallenge(50 * time.Millisecond)
	turn.Kind = ChallengeTurnLeft
	leftFace := neutralFace()
	leftFace.NoseTip.X = 100
	if turn.ObserveFrame(neutralFace()) {
		t.Error("centered face should not pass a turn-left challenge")
	}
	if !turn.ObserveFrame(leftFace) {
		t.Error("left-turned face should pass a turn-left challenge")
	}

	expired := NewChallenge(1 * time.Millisecond)
	expired.Kind = ChallengeBlink
	time.Sleep(5 * time.Millisecond)
	if expired.ObserveFrame(blink) {
		t.Error("blink after the deadline must not pass")
	}
	if !expired.Expired() {
		t.Error("lapsed challenge should report expired")
	}
}
