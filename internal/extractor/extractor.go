package extractor

import (
	"image"
	"log"

	"faceclock/internal/descriptor"
	"faceclock/internal/facemodel"
	"faceclock/models"

	"gocv.io/x/gocv"
)

// ============================================================
// DESCRIPTOR EXTRACTOR
// ============================================================

// Extraction is the result of one successful extraction pass.
type Extraction struct {
	Descriptor descriptor.Descriptor
	FaceBox    models.FaceBox
	CropJPEG   []byte
	FaceAngle  float64
	HeadPose   HeadPose
	IsFrontal  bool
}

// Extractor turns frames into descriptors. Pure apart from the injected
// model handle; nil results mean "no usable face", never an error.
type Extractor struct {
	handle      *facemodel.Handle
	expandRatio float64
}

type detectedFace struct {
	box      image.Rectangle
	rightEye models.Point2D
	leftEye  models.Point2D
	noseTip  models.Point2D
	score    float32
}

// New wires an extractor to loaded model assets.
func New(handle *facemodel.Handle) *Extractor {
	return &Extractor{handle: handle, expandRatio: 0.25}
}

// Extract detects faces and embeds the single usable one.
//
// Zero faces or more than one face both return (nil, nil): the kiosk only
// ever expects one attendee in frame, so an ambiguous frame is skipped,
// not failed. Model-asset problems are the only error path.
func (e *Extractor) Extract(frame gocv.Mat) (*Extraction, error) {
	if frame.Empty() {
		return nil, nil
	}

	facesMat, err := e.handle.Detect(frame)
	if err != nil {
		return nil, err
	}
	defer facesMat.Close()

	faces := readFaces(facesMat)
	if len(faces) != 1 {
		if len(faces) > 1 {
			log.Printf("   👥 %d faces in frame, skipping tick", len(faces))
		}
		return nil, nil
	}
	face := faces[0]

	crop := frame.Region(expandBox(face.box, frame.Cols(), frame.Rows(), e.expandRatio))
	defer crop.Close()

	vec, err := e.handle.Embed(crop)
	if err != nil {
		return nil, err
	}
	desc, err := descriptor.New(vec)
	if err != nil {
		return nil, err
	}

	jpegBuf, err := gocv.IMEncode(gocv.JPEGFileExt, crop)
	if err != nil {
		return nil, err
	}
	defer jpegBuf.Close()
	cropJPEG := make([]byte, len(jpegBuf.GetBytes()))
	copy(cropJPEG, jpegBuf.GetBytes())

	angle := FaceAngle(face.rightEye, face.leftEye, face.noseTip)

	return &Extraction{
		Descriptor: desc,
		FaceBox: models.FaceBox{
			X: face.box.Min.X, Y: face.box.Min.Y,
			W: face.box.Dx(), H: face.box.Dy(),
		},
		CropJPEG:  cropJPEG,
		FaceAngle: angle,
		HeadPose:  BucketPose(angle),
		IsFrontal: IsFrontal(face.rightEye, face.leftEye, face.noseTip),
	}, nil
}

// readFaces decodes the YuNet result rows:
// x, y, w, h, right eye, left eye, nose, mouth corners, score.
func readFaces(facesMat gocv.Mat) []detectedFace {
	var out []detectedFace
	for i := 0; i < facesMat.Rows(); i++ {
		x := int(facesMat.GetFloatAt(i, 0))
		y := int(facesMat.GetFloatAt(i, 1))
		w := int(facesMat.GetFloatAt(i, 2))
		h := int(facesMat.GetFloatAt(i, 3))
		if w <= 0 || h <= 0 {
			continue
		}
		out = append(out, detectedFace{
			box:      image.Rect(x, y, x+w, y+h),
			rightEye: models.Point2D{X: float64(facesMat.GetFloatAt(i, 4)), Y: float64(facesMat.GetFloatAt(i, 5))},
			leftEye:  models.Point2D{X: float64(facesMat.GetFloatAt(i, 6)), Y: float64(facesMat.GetFloatAt(i, 7))},
			noseTip:  models.Point2D{X: float64(facesMat.GetFloatAt(i, 8)), Y: float64(facesMat.GetFloatAt(i, 9))},
			score:    facesMat.GetFloatAt(i, 14),
		})
	}
	return out
}

// expandBox grows the detection box and clamps it to the frame, keeping the
// crop roughly centered on the face.
func expandBox(box image.Rectangle, imgW, imgH int, ratio float64) image.Rectangle {
	dx := int(float64(box.Dx()) * ratio)
	dy := int(float64(box.Dy()) * ratio)

	x1 := box.Min.X - dx
	y1 := box.Min.Y - dy
	x2 := box.Max.X + dx
	y2 := box.Max.Y + dy

	if x1 < 0 {
		x1 = 0
	}
	if y1 < 0 {
		y1 = 0
	}
	if x2 > imgW {
		x2 = imgW
	}
	if y2 > imgH {
		y2 = imgH
	}
	return image.Rect(x1, y1, x2, y2)
}
