package quality

import (
	"faceclock/models"

	"gocv.io/x/gocv"
)

// ============================================================
// CAPTURE QUALITY GATES
// ============================================================

// Report is the advisory quality verdict for one captured frame. A bad
// report means "retry the capture", never "abort the session".
type Report struct {
	IsGood        bool     `json:"is_good"`
	Brightness    float64  `json:"brightness"`
	Sharpness     float64  `json:"sharpness"`
	FaceSizeRatio float64  `json:"face_size_ratio"`
	Issues        []string `json:"issues"`
}

const (
	IssueTooDark      = "too dark"
	IssueTooBright    = "too bright"
	IssueBlurry       = "blurry"
	IssueFaceTooSmall = "face too small"
)

// RefFaceSize is the face-box edge (pixels) a well-framed capture produces.
const RefFaceSize = 160

// CheckQuality evaluates brightness, sharpness and face size for one frame.
// Thresholds are tolerance-biased: field usability beats strict rejection.
func CheckQuality(img gocv.Mat, faceBox *models.FaceBox) Report {
	report := Report{Issues: []string{}}
	if img.Empty() {
		report.Issues = append(report.Issues, IssueTooDark)
		return report
	}

	var gray gocv.Mat
	if img.Channels() > 1 {
		gray = gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		gray = img.Clone()
	}
	defer gray.Close()

	report.Brightness = meanLuminance(gray)
	if report.Brightness < models.BrightnessFloor {
		report.Issues = append(report.Issues, IssueTooDark)
	} else if report.Brightness > models.BrightnessCeiling {
		report.Issues = append(report.Issues, IssueTooBright)
	}

	report.Sharpness = laplacianSharpness(gray)
	if report.Sharpness < models.SharpnessFloor {
		report.Issues = append(report.Issues, IssueBlurry)
	}

	if faceBox != nil {
		size := faceBox.W
		if faceBox.H < size {
			size = faceBox.H
		}
		report.FaceSizeRatio = float64(size) / float64(RefFaceSize)
		if report.FaceSizeRatio < models.FaceSizeFloor {
			report.Issues = append(report.Issues, IssueFaceTooSmall)
		}
	}

	report.IsGood = len(report.Issues) == 0
	return report
}

// meanLuminance is the average gray level normalized to [0,1].
func meanLuminance(gray gocv.Mat) float64 {
	mean := gray.Mean()
	return mean.Val1 / 255.0
}

// laplacianSharpness estimates focus from the variance of the Laplacian,
// normalized so the classic var≈100 blur cutoff lands at 0.1.
func laplacianSharpness(gray gocv.Mat) float64 {
	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	_, stdDev := lap.MeanStdDev()
	variance := stdDev.Val1 * stdDev.Val1
	s := variance / 1000.0
	if s > 1 {
		s = 1
	}
	return s
}
