package quality

import (
	"math"

	"faceclock/models"
)

// ============================================================
// MOTION LIVENESS PRIMITIVES
// ============================================================
//
// All detectors are pure functions over one frame of the landmark stream.
// A frame without a face never passes any detector.

// eyeAspectRatio is vertical eye opening over horizontal eye width. The
// six points are ordered corner, upper lid x2, corner, lower lid x2.
func eyeAspectRatio(eye []models.Point2D) float64 {
	if len(eye) < 6 {
		return 1 // treat malformed input as "eye open"
	}
	v1 := dist(eye[1], eye[5])
	v2 := dist(eye[2], eye[4])
	h := dist(eye[0], eye[3])
	if h == 0 {
		return 1
	}
	return (v1 + v2) / (2 * h)
}

// DetectBlink fires when both eyes close below the EAR threshold.
func DetectBlink(lm models.Landmarks) bool {
	if !lm.HasFace {
		return false
	}
	left := eyeAspectRatio(lm.LeftEye)
	right := eyeAspectRatio(lm.RightEye)
	return (left+right)/2 < models.BlinkEARThreshold
}

// DetectSmile fires when the mouth corners lift above the upper-lip center
// by a fraction of mouth width.
func DetectSmile(lm models.Landmarks) bool {
	if !lm.HasFace {
		return false
	}
	width := dist(lm.MouthLeft, lm.MouthRight)
	if width == 0 {
		return false
	}
	// Image Y grows downward: smiling corners sit above the lip center.
	lift := (lm.UpperLipMid.Y - (lm.MouthLeft.Y+lm.MouthRight.Y)/2) / width
	return lift > models.SmileLiftThreshold
}

// DetectMouthOpen fires on mouth aspect ratio (lip gap over mouth width).
func DetectMouthOpen(lm models.Landmarks) bool {
	if !lm.HasFace {
		return false
	}
	width := dist(lm.MouthLeft, lm.MouthRight)
	if width == 0 {
		return false
	}
	gap := dist(lm.UpperLipTop, lm.LowerLipBot)
	return gap/width > models.MouthOpenThreshold
}

// DetectHeadTurn buckets the nose-tip offset from the cheek midpoint.
func DetectHeadTurn(lm models.Landmarks) string {
	if !lm.HasFace {
		return "center"
	}
	span := dist(lm.CheekLeft, lm.CheekRight)
	if span == 0 {
		return "center"
	}
	midX := (lm.CheekLeft.X + lm.CheekRight.X) / 2
	offset := (lm.NoseTip.X - midX) / span
	switch {
	case offset < -models.HeadTurnOffsetRatio:
		return "left"
	case offset > models.HeadTurnOffsetRatio:
		return "right"
	default:
		return "center"
	}
}

func dist(a, b models.Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
