package analyzer

import (
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"sync"

	"go-emotion-inspector/pkg/models"
)

const (
	// DefaultStride samples every 4th pixel (every 16th byte)
	DefaultStride = 4

	bytesPerPixel = 4

	// Flattened images larger than this (1024x1024) are not kept for reuse
	maxPooledPixelBytes = 4 << 20

	// Buffers with fewer samples than this are summed on the calling goroutine
	parallelSampleThreshold = 1 << 16

	redDominanceEpsilon = 1e-6
)

// channelSums accumulates the sampled channel values. Integer sums keep the
// result independent of how the buffer is split across workers.
type channelSums struct {
	r, g, b uint64
	count   int
}

func (s *channelSums) add(o channelSums) {
	s.r += o.r
	s.g += o.g
	s.b += o.b
	s.count += o.count
}

// sampleChannels walks the buffer taking one pixel every stride pixels
func sampleChannels(pixels []byte, stride int) (channelSums, error) {
	if len(pixels)%bytesPerPixel != 0 {
		return channelSums{}, fmt.Errorf("%w (got %d bytes)", ErrMalformedPixels, len(pixels))
	}
	if stride <= 0 {
		stride = DefaultStride
	}
	step := stride * bytesPerPixel
	samples := (len(pixels) + step - 1) / step
	if samples == 0 {
		return channelSums{}, ErrEmptyInput
	}

	if samples < parallelSampleThreshold {
		return sumRange(pixels, step, 0, samples), nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > samples {
		numWorkers = samples
	}
	perWorker := (samples + numWorkers - 1) / numWorkers // ceil division

	results := make(chan channelSums, numWorkers)
	var wg sync.WaitGroup

	for start := 0; start < samples; start += perWorker {
		end := min(start+perWorker, samples)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			results <- sumRange(pixels, step, start, end)
		}(start, end)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total channelSums
	for partial := range results {
		total.add(partial)
	}
	return total, nil
}

// sumRange sums samples [start, end), where sample k starts at byte k*step
func sumRange(pixels []byte, step, start, end int) channelSums {
	var s channelSums
	for k := start; k < end; k++ {
		i := k * step
		s.r += uint64(pixels[i])
		s.g += uint64(pixels[i+1])
		s.b += uint64(pixels[i+2])
		s.count++
	}
	return s
}

// CalculatePixelFeatures computes brightness, warmth and red dominance of
// an RGBA buffer
func CalculatePixelFeatures(pixels []byte, stride int) (models.PixelFeatures, int, error) {
	sums, err := sampleChannels(pixels, stride)
	if err != nil {
		return models.PixelFeatures{}, 0, err
	}
	n := float64(sums.count)
	r := float64(sums.r) / n
	g := float64(sums.g) / n
	b := float64(sums.b) / n

	return models.PixelFeatures{
		Brightness:   (r + g + b) / (3 * 255),
		Warmth:       (r - b + 255) / 510,
		RedDominance: r / (g + b + redDominanceEpsilon),
	}, sums.count, nil
}

// ImageToPixels flattens an image into a non-premultiplied RGBA buffer,
// the layout a browser canvas hands out. buf is reused when large enough.
func ImageToPixels(img image.Image, buf []byte) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	size := width * height * bytesPerPixel

	if cap(buf) < size {
		buf = make([]byte, size)
	}
	dst := &image.NRGBA{
		Pix:    buf[:size],
		Stride: width * bytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return dst.Pix
}
