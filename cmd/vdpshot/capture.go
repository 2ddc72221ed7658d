package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/image/draw"
)

const sampleRate = 48000

// frameImage wraps an RGBA framebuffer without copying it.
func frameImage(fb []byte, stride, width, height int) *image.NRGBA {
	return &image.NRGBA{
		Pix:    fb[:stride*height],
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// scaleImage resizes src by factor with nearest neighbour sampling, which
// keeps pixel edges sharp. A factor of 1 returns src.
func scaleImage(src *image.NRGBA, factor float64) image.Image {
	if factor == 1 {
		return src
	}
	b := src.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	dst := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// writeWAV stores interleaved 16-bit stereo samples.
func writeWAV(path string, samples []int16) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1) // 1 = PCM
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return enc.Close()
}
