package rtc

import (
	"bytes"
	"testing"
)

// vp8Keyframe builds a minimal valid keyframe header for the given size.
func vp8Keyframe(width, height int) []byte {
	frame := make([]byte, 16)
	// frame tag: bit 0 clear = keyframe
	frame[0] = 0x00
	frame[3] = 0x9d
	frame[4] = 0x01
	frame[5] = 0x2a
	frame[6] = byte(width & 0xff)
	frame[7] = byte((width >> 8) & 0x3f)
	frame[8] = byte(height & 0xff)
	frame[9] = byte((height >> 8) & 0x3f)
	return frame
}

func TestIsVP8Keyframe(t *testing.T) {
	if !isVP8Keyframe(vp8Keyframe(640, 480)) {
		t.Fatal("valid keyframe not detected")
	}

	interframe := vp8Keyframe(640, 480)
	interframe[0] = 0x01 // bit 0 set = interframe
	if isVP8Keyframe(interframe) {
		t.Fatal("interframe reported as keyframe")
	}

	badStart := vp8Keyframe(640, 480)
	badStart[3] = 0x00
	if isVP8Keyframe(badStart) {
		t.Fatal("frame with broken start code reported as keyframe")
	}

	if isVP8Keyframe([]byte{0x00, 0x01}) {
		t.Fatal("tiny buffer reported as keyframe")
	}
}

func TestVP8KeyframeDims(t *testing.T) {
	w, h, err := vp8KeyframeDims(vp8Keyframe(640, 480))
	if err != nil {
		t.Fatalf("dims: %v", err)
	}
	if w != 640 || h != 480 {
		t.Fatalf("got %dx%d, want 640x480", w, h)
	}

	if _, _, err := vp8KeyframeDims(vp8Keyframe(0, 480)); err == nil {
		t.Fatal("zero width accepted")
	}

	interframe := vp8Keyframe(640, 480)
	interframe[0] = 0x01
	if _, _, err := vp8KeyframeDims(interframe); err == nil {
		t.Fatal("interframe accepted")
	}
}

func TestOptimalDecodeSize(t *testing.T) {
	src := NewTrackSource(DefaultCaptureConfig(), DefaultDimensionConfig(), newBufferPool())

	tests := []struct {
		name           string
		inW, inH       int
		wantW, wantH   int
	}{
		{"already small", 320, 240, 320, 240},
		{"exactly at ceiling", 640, 480, 640, 480},
		{"1080p scaled down", 1920, 1080, 640, 360},
		{"portrait scaled down", 480, 960, 240, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := src.optimalDecodeSize(tt.inW, tt.inH)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestWrapIVF(t *testing.T) {
	frame := vp8Keyframe(640, 480)
	ivf := wrapIVF(frame, 640, 480)

	if len(ivf) != 32+12+len(frame) {
		t.Fatalf("ivf length %d, want %d", len(ivf), 32+12+len(frame))
	}
	if !bytes.Equal(ivf[0:4], []byte("DKIF")) {
		t.Fatalf("signature %q, want DKIF", ivf[0:4])
	}
	if !bytes.Equal(ivf[8:12], []byte("VP80")) {
		t.Fatalf("fourcc %q, want VP80", ivf[8:12])
	}
	gotW := int(ivf[12]) | int(ivf[13])<<8
	gotH := int(ivf[14]) | int(ivf[15])<<8
	if gotW != 640 || gotH != 480 {
		t.Fatalf("header dims %dx%d, want 640x480", gotW, gotH)
	}
	gotSize := uint32(ivf[32]) | uint32(ivf[33])<<8 | uint32(ivf[34])<<16 | uint32(ivf[35])<<24
	if gotSize != uint32(len(frame)) {
		t.Fatalf("frame size %d, want %d", gotSize, len(frame))
	}
	if !bytes.Equal(ivf[44:], frame) {
		t.Fatal("payload mismatch")
	}
}
