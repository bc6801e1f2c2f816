package extractor

import (
	"math"

	"faceclock/models"
)

// ============================================================
// HEAD POSE ESTIMATION
// ============================================================

type HeadPose string

const (
	PoseCenter HeadPose = "center"
	PoseLeft   HeadPose = "left"
	PoseRight  HeadPose = "right"
)

// FaceAngle scores horizontal head rotation from the nose tip offset
// relative to the eye midpoint, normalized by inter-eye distance and scaled
// to roughly ±100. Positive means the nose sits toward the right eye.
func FaceAngle(rightEye, leftEye, noseTip models.Point2D) float64 {
	midX := (rightEye.X + leftEye.X) / 2
	interEye := math.Hypot(leftEye.X-rightEye.X, leftEye.Y-rightEye.Y)
	if interEye == 0 {
		return 0
	}
	return (noseTip.X - midX) / interEye * 100
}

// IsFrontal is deliberately loose: under 40% of inter-eye distance still
// counts, so casual kiosk framing doesn't lock workers out.
func IsFrontal(rightEye, leftEye, noseTip models.Point2D) bool {
	return math.Abs(FaceAngle(rightEye, leftEye, noseTip)) < models.FrontalOffsetRatio*100
}

// BucketPose maps a face angle onto the three enrollment poses.
func BucketPose(angle float64) HeadPose {
	switch {
	case angle < models.PoseAngleLeft:
		return PoseLeft
	case angle > models.PoseAngleRight:
		return PoseRight
	default:
		return PoseCenter
	}
}
