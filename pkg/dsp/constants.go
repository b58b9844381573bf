package dsp

// Common audio constants.
const (
	UnityGain = 1.0

	Mono   = 1
	Stereo = 2

	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate96k  = 96000.0

	// Block sizes for the renderer and device backends
	MinBufferSize     = 32
	DefaultBufferSize = 512
	MaxBufferSize     = 8192

	// Gain smoothing time in seconds
	MediumSmoothing = 0.010

	// Full scale for clipping before integer conversion
	ClipThreshold = 1.0
)
