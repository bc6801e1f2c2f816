package models

import "time"

// ============================================================
// CONFIGURATION
// ============================================================

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTKey      []byte
	AllowOrigin string
}

type FaceModelConfig struct {
	DetectorModelPath string // YuNet ONNX
	EmbedderModelPath string // SFace ONNX, 128-d output
	DetectorInputW    int
	DetectorInputH    int
	ScoreThreshold    float32
	NMSThreshold      float32
}

type ScannerConfig struct {
	ScanInterval     time.Duration // recognition poll, one frame per tick
	TrackInterval    time.Duration // face-box overlay poll, read-only
	MatchThreshold   float64
	CooldownWindow   time.Duration
	LivenessRequired bool
	LivenessWindow   time.Duration
}

type EnrollConfig struct {
	PollInterval       time.Duration
	SessionDeadline    time.Duration
	DuplicateThreshold float64
	FastPath           bool // accept 2 poses instead of 3
}

type GeofenceConfig struct {
	AccuracyCeilingM  float64
	PerfectAccuracyM  float64
	MaxSpeedKMH       float64
	MinSpeedGap       time.Duration
	TeleportDistanceM float64
	TeleportWindow    time.Duration
}

type AttendanceConfig struct {
	FullShift     time.Duration // checkout allowed freely past this
	MinShift      time.Duration // below this, checkout rejected outright
	ConfirmWindow time.Duration // early-checkout confirmation window
}
