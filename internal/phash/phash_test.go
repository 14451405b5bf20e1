package phash

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
)

// grayImage builds a 32x32 grayscale image filled by fn(x, y).
func grayImage(fn func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, InputSize, InputSize))
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			img.Pix[y*img.Stride+x] = fn(x, y)
		}
	}
	return img
}

func TestComputeDeterministic(t *testing.T) {
	img := grayImage(func(x, y int) uint8 { return uint8((x*7 + y*13) % 256) })

	first, err := Compute(img)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	second, err := Compute(img)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if first != second {
		t.Errorf("Compute is not deterministic: %s vs %s", first.Hex(), second.Hex())
	}
	if len(first.Hex()) != HexLen {
		t.Errorf("Hex length = %d, want %d", len(first.Hex()), HexLen)
	}
}

func TestComputeUniformImage(t *testing.T) {
	// Every block mean equals the overall mean; >= favors 1 on the tie.
	img := grayImage(func(x, y int) uint8 { return 128 })

	fp, err := Compute(img)
	if err != nil {
		t.Fatalf("Compute failed on uniform image: %v", err)
	}
	if fp.Hex() != "ffffffffffffffff" {
		t.Errorf("uniform image hash = %s, want ffffffffffffffff", fp.Hex())
	}
}

func TestComputeHalfDarkHalfLight(t *testing.T) {
	// Top half black, bottom half white: the top 32 bits should be 0 and
	// the bottom 32 bits 1, in row-major order.
	img := grayImage(func(x, y int) uint8 {
		if y < InputSize/2 {
			return 0
		}
		return 255
	})

	fp, err := Compute(img)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if fp.Hex() != "00000000ffffffff" {
		t.Errorf("half/half hash = %s, want 00000000ffffffff", fp.Hex())
	}
}

func TestComputeRejectsWrongSize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))

	if _, err := Compute(img); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for 16x16 input, got %v", err)
	}
	if _, err := Compute(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil input, got %v", err)
	}
}

func TestHexRoundTrip(t *testing.T) {
	tests := []Fingerprint{0, 1, 0xdeadbeefcafe1234, ^Fingerprint(0)}

	for _, fp := range tests {
		parsed, err := ParseHex(fp.Hex())
		if err != nil {
			t.Errorf("ParseHex(%s) failed: %v", fp.Hex(), err)
			continue
		}
		if parsed != fp {
			t.Errorf("round trip %s: got %s", fp.Hex(), parsed.Hex())
		}
	}
}

func TestParseHexInvalid(t *testing.T) {
	tests := []string{"", "abc", "zzzzzzzzzzzzzzzz", "0123456789abcdef0"}

	for _, s := range tests {
		if _, err := ParseHex(s); err == nil {
			t.Errorf("ParseHex(%q) should fail", s)
		}
	}
}

func TestDistance(t *testing.T) {
	a := Fingerprint(0x0f0f0f0f0f0f0f0f)
	b := Fingerprint(0xf0f0f0f0f0f0f0f0)

	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a, a) = %d, want 0", d)
	}
	if d := Distance(a, b); d != 64 {
		t.Errorf("Distance(a, ~a) = %d, want 64", d)
	}
	if Distance(a, b) != Distance(b, a) {
		t.Error("Distance is not symmetric")
	}

	// Single flipped bit
	if d := Distance(a, a^1); d != 1 {
		t.Errorf("Distance with one flipped bit = %d, want 1", d)
	}
}

func TestDistanceHexDefensive(t *testing.T) {
	valid := Fingerprint(42).Hex()

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", valid, valid, 0},
		{"short hash", valid, "abcd", MaxDistance},
		{"corrupt hash", valid, "xxxxxxxxxxxxxxxx", MaxDistance},
		{"both empty", "", "", MaxDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := DistanceHex(tt.a, tt.b); d != tt.want {
				t.Errorf("DistanceHex(%q, %q) = %d, want %d", tt.a, tt.b, d, tt.want)
			}
		})
	}
}

func TestFromImage(t *testing.T) {
	// Encode a gradient as PNG and make sure decoding yields a stable hash.
	src := grayImage(func(x, y int) uint8 { return uint8(x * 8) })
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	encoded := buf.Bytes()

	first, err := FromImage(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	second, err := FromImage(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if first != second {
		t.Errorf("FromImage is not deterministic: %s vs %s", first.Hex(), second.Hex())
	}
}

func TestFromImageGarbage(t *testing.T) {
	_, err := FromImage(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for undecodable data, got %v", err)
	}
}
