package models

import "time"

// ============================================================
// SIGNALING CONSTANTS
// ============================================================

const (
	SignalSDPOffer     = 1
	SignalSDPAnswer    = 2
	SignalICECandidate = 3
	SignalQuit         = 4
	SignalLocation     = 10
	SignalLandmarks    = 11
	SignalStatus       = 12
)

// ============================================================
// DESCRIPTOR & MATCHING DEFAULTS
// ============================================================

const (
	// DescriptorDim is the only embedding length the pipeline accepts.
	DescriptorDim = 128

	DefaultMatchThreshold     = 0.55
	DefaultDuplicateThreshold = 0.50
)

// ============================================================
// POSE & QUALITY DEFAULTS
// ============================================================

const (
	// Relaxed on purpose: phone-camera framing is sloppy in the field.
	FrontalOffsetRatio = 0.40
	PoseAngleLeft      = -15.0
	PoseAngleRight     = 15.0

	BrightnessFloor   = 0.20
	BrightnessCeiling = 0.85
	SharpnessFloor    = 0.10
	FaceSizeFloor     = 0.50

	BlinkEARThreshold   = 0.15
	MouthOpenThreshold  = 0.45
	SmileLiftThreshold  = 0.06
	HeadTurnOffsetRatio = 0.20
)

// ============================================================
// TIMING DEFAULTS
// ============================================================

const (
	DefaultScanInterval    = 500 * time.Millisecond
	DefaultTrackInterval   = 400 * time.Millisecond
	DefaultCooldownWindow  = 10 * time.Second
	DefaultLivenessWindow  = 15 * time.Second
	DefaultEnrollInterval  = 500 * time.Millisecond
	DefaultEnrollDeadline  = 60 * time.Second
	DefaultConfirmWindow   = 30 * time.Second
	DefaultFullShift       = 4 * time.Hour
	DefaultMinShift        = 1 * time.Hour
	DefaultAccuracyCeiling = 100.0 // meters
	DefaultPerfectAccuracy = 3.0   // meters, below this is "too good to be real"
	DefaultMaxSpeedKMH     = 150.0
	DefaultMinSpeedGap     = 3600 * time.Millisecond
	DefaultTeleportMeters  = 10000.0
	DefaultTeleportWindow  = 10 * time.Second
)
