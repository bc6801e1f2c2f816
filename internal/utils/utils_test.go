package utils

import (
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	payload := `{"type":"answer","sdp":"v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\n"}`

	compressed := CompressGzip(payload)
	if compressed == payload {
		t.Fatal("payload was not compressed")
	}
	if !strings.HasPrefix(compressed, "H4sI") {
		t.Fatalf("compressed payload missing gzip prefix: %.8s", compressed)
	}

	decompressed, err := DecompressGzip(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if decompressed != payload {
		t.Fatalf("round trip mismatch: %q", decompressed)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := DecompressGzip("not base64 at all!!!"); err == nil {
		t.Fatal("invalid base64 accepted")
	}
	// Valid base64 that is not gzip.
	if _, err := DecompressGzip("aGVsbG8="); err == nil {
		t.Fatal("non-gzip payload accepted")
	}
}

const sampleSDP = "v=0\n" +
	"m=audio 9 UDP/TLS/RTP/SAVPF 111\n" +
	"a=rtpmap:111 opus/48000/2\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96\n" +
	"a=rtpmap:96 VP8/90000\n" +
	"a=rtcp-fb:96 nack pli\n"

func TestPatchSDPForQuality(t *testing.T) {
	patched := PatchSDPForQuality(sampleSDP, 2500, 1500, 3000)

	if !strings.Contains(patched, "b=AS:2500") {
		t.Fatal("missing b=AS line")
	}
	if !strings.Contains(patched, "a=fmtp:96 x-google-min-bitrate=1500;x-google-max-bitrate=3000;x-google-start-bitrate=2250") {
		t.Fatalf("missing fmtp bitrate hints:\n%s", patched)
	}

	// The audio section stays untouched.
	audioIdx := strings.Index(patched, "m=audio")
	videoIdx := strings.Index(patched, "m=video")
	if strings.Contains(patched[audioIdx:videoIdx], "x-google") {
		t.Fatal("bitrate hints leaked into the audio section")
	}
}

func TestPatchSDPZeroValuesNoOp(t *testing.T) {
	if got := PatchSDPForQuality(sampleSDP, 0, 0, 0); strings.Contains(got, "b=AS") || strings.Contains(got, "x-google") {
		t.Fatal("zero bitrates must not inject lines")
	}
}
