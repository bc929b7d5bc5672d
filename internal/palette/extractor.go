// Package palette derives a six-swatch color profile from cover images, in
// the vibrant/muted x normal/dark/light banding used by the clients.
package palette

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/melodix/server/internal/domain"
)

// Extractor produces a palette from an image locator. A failed extraction
// returns an error; callers decide whether to degrade to an absent palette or
// to propagate (the batch backfill is fail-fast, the write paths degrade).
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (domain.Palette, error)
}

// swatch bands, indexed by saturation (vibrant vs muted) and lightness.
const (
	bandVibrant = iota
	bandDarkVibrant
	bandLightVibrant
	bandMuted
	bandDarkMuted
	bandLightMuted
	bandCount
)

const (
	saturationSplit = 0.45
	darkLightness   = 0.35
	lightLightness  = 0.65
	sampleStride    = 4 // sample every 4th pixel in both axes
)

// HTTPExtractor fetches the image over HTTP and quantizes its pixels.
type HTTPExtractor struct {
	client *http.Client
}

// NewHTTPExtractor creates an extractor with the given request timeout.
func NewHTTPExtractor(timeout time.Duration) *HTTPExtractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPExtractor{client: &http.Client{Timeout: timeout}}
}

// Extract downloads and decodes the image, classifies sampled pixels into the
// six bands and returns the dominant quantized color of each band as hex.
// Bands with no matching pixels stay absent.
func (e *HTTPExtractor) Extract(ctx context.Context, imageURL string) (domain.Palette, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return domain.Palette{}, fmt.Errorf("palette: invalid image url %q: %w", imageURL, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return domain.Palette{}, fmt.Errorf("palette: fetching %q: %w", imageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Palette{}, fmt.Errorf("palette: fetching %q: status %d", imageURL, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return domain.Palette{}, fmt.Errorf("palette: decoding %q: %w", imageURL, err)
	}

	return FromImage(img), nil
}

// FromImage computes the palette of an already decoded image.
func FromImage(img image.Image) domain.Palette {
	// Per band, count occurrences of quantized colors and remember the raw
	// color last seen for each bucket.
	counts := make([]map[uint32]int, bandCount)
	colors := make([]map[uint32]colorful.Color, bandCount)
	for i := range counts {
		counts[i] = make(map[uint32]int)
		colors[i] = make(map[uint32]colorful.Color)
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleStride {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleStride {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			c := colorful.Color{R: float64(r) / 65535, G: float64(g) / 65535, B: float64(b) / 65535}
			band := classify(c)
			key := quantize(c)
			counts[band][key]++
			colors[band][key] = c
		}
	}

	var p domain.Palette
	fields := []**string{&p.Vibrant, &p.DarkVibrant, &p.LightVibrant, &p.Muted, &p.DarkMuted, &p.LightMuted}
	for band, field := range fields {
		best, ok := dominant(counts[band])
		if !ok {
			continue
		}
		hex := colors[band][best].Hex()
		*field = &hex
	}
	return p
}

func classify(c colorful.Color) int {
	_, s, l := c.Hsl()
	vibrant := s > saturationSplit
	switch {
	case l < darkLightness:
		if vibrant {
			return bandDarkVibrant
		}
		return bandDarkMuted
	case l > lightLightness:
		if vibrant {
			return bandLightVibrant
		}
		return bandLightMuted
	default:
		if vibrant {
			return bandVibrant
		}
		return bandMuted
	}
}

// quantize buckets each channel to 16 levels so near-identical pixels vote for
// the same swatch.
func quantize(c colorful.Color) uint32 {
	r := uint32(c.R*15 + 0.5)
	g := uint32(c.G*15 + 0.5)
	b := uint32(c.B*15 + 0.5)
	return r<<8 | g<<4 | b
}

func dominant(m map[uint32]int) (uint32, bool) {
	var best uint32
	bestN := 0
	for k, n := range m {
		if n > bestN {
			best, bestN = k, n
		}
	}
	return best, bestN > 0
}
