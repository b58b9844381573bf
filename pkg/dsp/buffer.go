// Package dsp provides block helpers shared by the renderer, the output
// backends and the CLI, plus common audio constants.
package dsp

import (
	"math"

	"github.com/tphakala/simd/f32"
)

// Clear zeroes a buffer - no allocations
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Add adds source to destination - no allocations
func Add(dst, src []float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// Gain multiplies buffer by a constant in place - no allocations
func Gain(buffer []float32, gain float32) {
	if gain == UnityGain {
		return
	}
	f32.Scale(buffer, buffer, gain)
}

// Interleave writes mono twice per frame into dst, which must hold
// 2*len(mono) samples.
func Interleave(dst, mono []float32) {
	f32.Interleave2(dst[:2*len(mono)], mono, mono)
}

// Peak finds the maximum absolute value in a buffer
func Peak(buffer []float32) float32 {
	peak := float32(0)
	for _, sample := range buffer {
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	return peak
}

// RMS calculates the root mean square of a buffer
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	sum := f32.DotProductUnsafe(buffer, buffer)
	return float32(math.Sqrt(float64(sum) / float64(len(buffer))))
}

// Clip limits samples to [-limit, limit]
func Clip(buffer []float32, limit float32) int {
	clipped := 0
	for i := range buffer {
		if buffer[i] > limit {
			buffer[i] = limit
			clipped++
		} else if buffer[i] < -limit {
			buffer[i] = -limit
			clipped++
		}
	}
	return clipped
}
