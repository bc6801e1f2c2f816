package camera

import (
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// ============================================================
// LOCAL CAPTURE DEVICE
// ============================================================

// Device wraps a local webcam for kiosks that run the service on-site
// instead of streaming over WebRTC.
type Device struct {
	capture *gocv.VideoCapture
	mu      sync.Mutex
	closed  bool
}

// OpenDevice acquires the capture device by index (usually 0).
func OpenDevice(deviceID int) (*Device, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", deviceID, err)
	}
	log.Printf("📷 Capture device %d opened", deviceID)
	return &Device{capture: capture}, nil
}

// Frame reads one frame from the device.
func (d *Device) Frame() (gocv.Mat, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return gocv.Mat{}, false
	}
	img := gocv.NewMat()
	if ok := d.capture.Read(&img); !ok || img.Empty() {
		img.Close()
		return gocv.Mat{}, false
	}
	return img, true
}

// Close releases the camera lock.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	log.Println("📷 Capture device released")
	return d.capture.Close()
}
