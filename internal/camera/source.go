package camera

import "gocv.io/x/gocv"

// ============================================================
// FRAME SOURCE
// ============================================================

// FrameSource is anything the pipeline can pull a still frame from on
// demand: a local capture device or a remote WebRTC track. Returned Mats
// are owned by the caller, which must Close them.
type FrameSource interface {
	// Frame pulls the most recent frame. ok is false when no frame is
	// available this tick, which is routine and not an error.
	Frame() (gocv.Mat, bool)

	// Close releases the underlying device or track. Must be called when
	// the capturing surface goes away so the camera lock is dropped.
	Close() error
}
