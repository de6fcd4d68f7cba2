package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, w, h int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding processed image: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessJPEG(t *testing.T) {
	data, mime, err := Process(bytes.NewReader(encodeTestImage(t, 100, 100, false)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", mime)
	}
	if len(data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNGConvertsToJPEG(t *testing.T) {
	_, mime, err := Process(bytes.NewReader(encodeTestImage(t, 100, 100, true)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg output, got %s", mime)
	}
}

func TestProcessDownscalesLargeImage(t *testing.T) {
	data, _, err := Process(bytes.NewReader(encodeTestImage(t, 2048, 1024, false)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	w, h := decodeDims(t, data)
	if w != maxDimension {
		t.Errorf("expected width %d, got %d", maxDimension, w)
	}
	if h != maxDimension/2 {
		t.Errorf("expected aspect ratio preserved, got %dx%d", w, h)
	}
}

func TestProcessKeepsSmallImage(t *testing.T) {
	data, _, err := Process(bytes.NewReader(encodeTestImage(t, 60, 40, false)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if w, h := decodeDims(t, data); w != 60 || h != 40 {
		t.Errorf("small image should not be resized, got %dx%d", w, h)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	if _, _, err := Process(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestProcessRejectsGIF(t *testing.T) {
	if _, _, err := Process(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("expected error for GIF input")
	}
}
