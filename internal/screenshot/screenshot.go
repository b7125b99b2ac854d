// Package screenshot implements C7: a fully local tool that captures the
// host's native window, resizes and re-encodes it for transport, and
// returns the JPEG for an MCP image content item. It never touches the
// shared queue.
package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/draw"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridgeerr"
)

// maxDimension is the larger-dimension cap the resize pipeline enforces,
// so oversized screenshots shrink instead of going out unbounded.
const maxDimension = 1920

// jpegQuality is the fixed re-encode quality. This service targets a
// dimension budget rather than a byte budget, so a single quality level
// is enough — no need for a quality-ladder retry.
const jpegQuality = 85

// captureFunc is the platform hook: write a raw screen/window capture to
// a fresh temp file and return its path. Swappable in tests.
var captureFunc = captureNative

// Capture takes a screenshot of the host's window, resizes it to fit
// maxDimension, and returns the JPEG bytes ready to go straight into an
// MCP image content item, which base64-encodes them on the wire.
func Capture(ctx context.Context) ([]byte, error) {
	path, err := captureFunc(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bridgeerr.ErrScreenshotFailed, err)
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening capture: %v", bridgeerr.ErrScreenshotFailed, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding capture: %v", bridgeerr.ErrScreenshotFailed, err)
	}

	resized := resize(img)

	var buf bytes.Buffer
	if err := encodeJPEG(&buf, resized); err != nil {
		return nil, fmt.Errorf("%w: encoding jpeg: %v", bridgeerr.ErrScreenshotFailed, err)
	}

	return buf.Bytes(), nil
}

// resize downscales img so its larger dimension is at most maxDimension,
// preserving aspect ratio. Images already within budget pass through
// unchanged (no upscaling).
func resize(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	largest := w
	if h > largest {
		largest = h
	}
	if largest <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(largest)
	newW := int(math.Round(float64(w) * scale))
	newH := int(math.Round(float64(h) * scale))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
}
