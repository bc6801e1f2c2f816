package facemodel

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"sync"

	"faceclock/models"

	"gocv.io/x/gocv"
)

// ============================================================
// MODEL ASSETS - explicit handle, no ambient globals
// ============================================================

// ErrModelsUnavailable distinguishes "assets never loaded" from the routine
// "no face in frame". Callers surface it as a retryable fatal condition.
var ErrModelsUnavailable = errors.New("face models unavailable")

// Handle owns the loaded detection and embedding networks. It is created
// once by Load and injected wherever extraction happens.
type Handle struct {
	detector gocv.FaceDetectorYN
	embedder gocv.Net
	inputW   int
	inputH   int
	loaded   bool
	mu       sync.Mutex
}

// Load reads both ONNX models from disk. It either returns a ready handle or
// an explicit error; there is no half-loaded state.
func Load(cfg models.FaceModelConfig) (*Handle, error) {
	for _, path := range []string{cfg.DetectorModelPath, cfg.EmbedderModelPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: model file not found: %s", ErrModelsUnavailable, path)
		}
	}

	detector := gocv.NewFaceDetectorYN(
		cfg.DetectorModelPath,
		"",
		image.Pt(cfg.DetectorInputW, cfg.DetectorInputH),
	)
	detector.SetScoreThreshold(cfg.ScoreThreshold)
	detector.SetNMSThreshold(cfg.NMSThreshold)

	embedder := gocv.ReadNet(cfg.EmbedderModelPath, "")
	if embedder.Empty() {
		detector.Close()
		return nil, fmt.Errorf("%w: failed to read embedder from %s", ErrModelsUnavailable, cfg.EmbedderModelPath)
	}
	embedder.SetPreferableBackend(gocv.NetBackendDefault)
	embedder.SetPreferableTarget(gocv.NetTargetCPU)

	log.Printf("✅ Face models loaded (detector: %s, embedder: %s)",
		cfg.DetectorModelPath, cfg.EmbedderModelPath)

	return &Handle{
		detector: detector,
		embedder: embedder,
		inputW:   cfg.DetectorInputW,
		inputH:   cfg.DetectorInputH,
		loaded:   true,
	}, nil
}

// Detect runs the YuNet pass. The result Mat layout is one row per face:
// x, y, w, h, five landmark pairs, score. Caller closes the Mat.
func (h *Handle) Detect(img gocv.Mat) (gocv.Mat, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		return gocv.Mat{}, ErrModelsUnavailable
	}

	h.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))
	faces := gocv.NewMat()
	h.detector.Detect(img, &faces)
	return faces, nil
}

// Embed extracts the 128-d embedding from an aligned face crop.
// SFace expects 112x112 input with mean/scale normalization.
func (h *Handle) Embed(face gocv.Mat) ([]float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		return nil, ErrModelsUnavailable
	}
	if face.Empty() {
		return nil, fmt.Errorf("empty face crop")
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(face, &resized, image.Pt(112, 112), 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(
		resized,
		1.0/127.5,
		image.Pt(112, 112),
		gocv.NewScalar(127.5, 127.5, 127.5, 0),
		true,  // swap RB
		false, // crop
	)
	defer blob.Close()

	h.embedder.SetInput(blob, "")
	output := h.embedder.Forward("")
	defer output.Close()

	embedding := make([]float64, models.DescriptorDim)
	for i := 0; i < models.DescriptorDim; i++ {
		embedding[i] = float64(output.GetFloatAt(0, i))
	}
	return normalize(embedding), nil
}

// Close releases both networks. The handle is unusable afterwards.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		return
	}
	h.detector.Close()
	h.embedder.Close()
	h.loaded = false
	log.Println("🛑 Face models released")
}

// normalize applies L2 normalization so distances are scale-free.
func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= norm
	}
	return v
}
