package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// MaxUploadSize caps variant image uploads at 8 MiB.
const MaxUploadSize = 8 << 20

// maxDimension is the longest edge a stored image may have.
const maxDimension = 1024

// jpegQuality is the compression quality for re-encoded output.
const jpegQuality = 85

// allowedMIME lists the input formats accepted for variant photos.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Process validates an uploaded variant photo, scales it down to at most
// maxDimension on the longest edge, and re-encodes it as JPEG. The MIME type
// is sniffed from the bytes, never taken from client headers. Returns the
// encoded bytes and the stored MIME type.
func Process(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, "", fmt.Errorf("image exceeds %d byte limit", MaxUploadSize)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, "", fmt.Errorf("unsupported image format %s (JPEG, PNG or WebP required)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// fit scales img so neither edge exceeds maxDimension, preserving aspect
// ratio. Images already within bounds are returned unchanged, never upscaled.
func fit(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDimension && h <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(max(w, h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
