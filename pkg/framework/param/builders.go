package param

import (
	"fmt"
	"math"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		value = math.Round(value)
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	minVal, maxVal := 0.0, 0.0
	if len(options) > 0 {
		minVal = options[0].Value
		maxVal = options[len(options)-1].Value
	}

	b := New(id, name).
		Range(minVal, maxVal).
		Steps(int32(len(options) - 1)).
		Formatter(formatter, parser)
	b.param.Flags |= IsList
	if len(options) > 0 {
		b.Default(options[0].Value)
	}
	return b
}

// GainParameter creates a master gain parameter (-80 to +12 dB)
func GainParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(-80, 12).
		Default(0).
		Unit("dB").
		Formatter(DecibelFormatter, DecibelParser)
}

// TimeParameter creates a duration parameter in seconds
func TimeParameter(id uint32, name string, maxSeconds, defaultSeconds float64) *Builder {
	return New(id, name).
		Range(0, maxSeconds).
		Default(defaultSeconds).
		Unit("s").
		Formatter(TimeFormatter, TimeParser)
}

// LevelParameter creates a 0-1 level parameter
func LevelParameter(id uint32, name string, defaultLevel float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultLevel).
		Formatter(LevelFormatter, nil)
}

// PercentParameter creates a 0-100% position parameter
func PercentParameter(id uint32, name string, defaultPct float64) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(defaultPct).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// CountParameter creates an integer parameter
func CountParameter(id uint32, name string, min, max, defaultVal int) *Builder {
	return New(id, name).
		Range(float64(min), float64(max)).
		Steps(int32(max - min)).
		Default(float64(defaultVal))
}

// NoteParameter creates a MIDI note parameter shown as a note name
func NoteParameter(id uint32, name string, defaultNote uint8) *Builder {
	return New(id, name).
		Range(0, 127).
		Steps(127).
		Default(float64(defaultNote)).
		Formatter(NoteFormatter, NoteParser)
}

// ToggleParameter creates an on/off parameter
func ToggleParameter(id uint32, name string, on bool) *Builder {
	b := New(id, name).Toggle()
	if on {
		b.Default(1)
	}
	return b
}
