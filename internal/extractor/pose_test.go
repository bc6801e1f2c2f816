package extractor

import (
	"testing"

	"faceclock/models"
)

func pt(x, y float64) models.Point2D { return models.Point2D{X: x, Y: y} }

func TestFaceAngle(t *testing.T) {
	rightEye := pt(100, 100)
	leftEye := pt(160, 100) // inter-eye distance 60, midpoint x=130

	tests := []struct {
		name string
		nose models.Point2D
		want float64
	}{
		{"dead center", pt(130, 130), 0},
		{"nose toward right eye", pt(145, 130), 25},
		{"nose toward left eye", pt(115, 130), -25},
		{"extreme turn", pt(190, 130), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FaceAngle(rightEye, leftEye, tt.nose)
			if got != tt.want {
				t.Errorf("FaceAngle = %v, want %v", got, tt.want)
			}
		})
	}

	// Degenerate: coincident eyes must not divide by zero.
	if got := FaceAngle(pt(100, 100), pt(100, 100), pt(130, 130)); got != 0 {
		t.Errorf("coincident eyes: got %v, want 0", got)
	}
}

func TestIsFrontal(t *testing.T) {
	rightEye := pt(100, 100)
	leftEye := pt(160, 100)

	if !IsFrontal(rightEye, leftEye, pt(150, 130)) {
		t.Error("offset 33%% of inter-eye distance should still be frontal")
	}
	if IsFrontal(rightEye, leftEye, pt(160, 130)) {
		t.Error("offset 50%% of inter-eye distance should not be frontal")
	}
}

func TestBucketPose(t *testing.T) {
	tests := []struct {
		angle float64
		want  HeadPose
	}{
		{0, PoseCenter},
		{-15, PoseCenter},
		{15, PoseCenter},
		{-15.1, PoseLeft},
		{-60, PoseLeft},
		{15.1, PoseRight},
		{80, PoseRight},
	}
	for _, tt := range tests {
		if got := BucketPose(tt.angle); got != tt.want {
			t.Errorf("BucketPose(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}
