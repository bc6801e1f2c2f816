package quality

import (
	"math/rand"
	"sync"
	"time"

	"faceclock/models"
)

// ============================================================
// LIVENESS CHALLENGE
// ============================================================

type ChallengeKind string

const (
	ChallengeBlink     ChallengeKind = "BLINK"
	ChallengeSmile     ChallengeKind = "SMILE"
	ChallengeOpenMouth ChallengeKind = "OPEN_MOUTH"
	ChallengeTurnLeft  ChallengeKind = "TURN_LEFT"
	ChallengeTurnRight ChallengeKind = "TURN_RIGHT"
)

// The random draw sticks to gestures every kiosk camera can resolve; the
// head-turn kinds are selectable for kiosks with reliable cheek landmarks.
var challengeKinds = []ChallengeKind{ChallengeBlink, ChallengeSmile, ChallengeOpenMouth}

// Challenge asks the attendee to perform one random gesture within a bounded
// window. Feed it landmark frames; it passes only when the matching detector
// fires before the deadline.
type Challenge struct {
	Kind     ChallengeKind
	deadline time.Time
	passed   bool
	mu       sync.Mutex
}

// NewChallenge picks a random gesture and arms the window.
func NewChallenge(window time.Duration) *Challenge {
	return &Challenge{
		Kind:     challengeKinds[rand.Intn(len(challengeKinds))],
		deadline: time.Now().Add(window),
	}
}

// ObserveFrame scores one landmark frame. Frames without a face never pass;
// frames after the deadline never pass.
func (c *Challenge) ObserveFrame(lm models.Landmarks) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.passed || time.Now().After(c.deadline) {
		return c.passed
	}

	var fired bool
	switch c.Kind {
	case ChallengeBlink:
		fired = DetectBlink(lm)
	case ChallengeSmile:
		fired = DetectSmile(lm)
	case ChallengeOpenMouth:
		fired = DetectMouthOpen(lm)
	case ChallengeTurnLeft:
		fired = DetectHeadTurn(lm) == "left"
	case ChallengeTurnRight:
		fired = DetectHeadTurn(lm) == "right"
	}
	if fired {
		c.passed = true
	}
	return c.passed
}

// Passed reports whether the gesture was seen inside the window.
func (c *Challenge) Passed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passed
}

// Expired reports whether the window lapsed without a pass.
func (c *Challenge) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.passed && time.Now().After(c.deadline)
}
