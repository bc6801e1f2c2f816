package models

// ============================================================
// RUNTIME TYPES
// ============================================================

// LocationSample is one GPS reading pushed by the kiosk. Accuracy and
// timestamp are mandatory; a zero TimestampMs is rejected upstream.
type LocationSample struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	AccuracyM   float64 `json:"accuracy_m"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// MatchResult references the nearest enrolled worker. Similarity is derived
// for display only; the accept decision is made on Distance alone.
type MatchResult struct {
	WorkerId   int64   `json:"worker_id"`
	WorkerName string  `json:"worker_name"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// Point2D is an image-space landmark coordinate.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks is one frame of the temporal landmark stream used by the
// liveness detectors. The kiosk pushes these alongside video.
type Landmarks struct {
	LeftEye      []Point2D `json:"left_eye"`  // 6 points, corners first
	RightEye     []Point2D `json:"right_eye"` // 6 points, corners first
	NoseTip      Point2D   `json:"nose_tip"`
	MouthLeft    Point2D   `json:"mouth_left"`
	MouthRight   Point2D   `json:"mouth_right"`
	UpperLipTop  Point2D   `json:"upper_lip_top"`
	LowerLipBot  Point2D   `json:"lower_lip_bot"`
	UpperLipMid  Point2D   `json:"upper_lip_mid"`
	CheekLeft    Point2D   `json:"cheek_left"`
	CheekRight   Point2D   `json:"cheek_right"`
	HasFace      bool      `json:"has_face"`
	CapturedAtMs int64     `json:"captured_at_ms"`
}

// ============================================================
// SIGNALING ENVELOPE
// ============================================================

// SignalEnvelope is the JSON frame exchanged on /ws/signal. SDP payloads may
// be gzip+base64 compressed (H4sI prefix).
type SignalEnvelope struct {
	Type      int    `json:"type"`
	SessionId string `json:"session_id"`
	Data      string `json:"data"`
}

// ============================================================
// SCAN STATUS PUSHED TO THE OVERLAY
// ============================================================

type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type ScanStatus struct {
	State     string       `json:"state"` // blocked | challenge | scanning | decided
	Message   string       `json:"message"`
	Box       *FaceBox     `json:"box,omitempty"`
	Match     *MatchResult `json:"match,omitempty"`
	Challenge string       `json:"challenge,omitempty"`
}
