package midi

import (
	"testing"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOnEvent{
		BaseEvent: BaseEvent{
			EventChannel: 0,
			Offset:       100,
		},
		NoteNumber: 60, // Middle C
		Velocity:   64,
	}

	if event.Type() != EventTypeNoteOn {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOn, event.Type())
	}

	if event.Channel() != 0 {
		t.Errorf("Expected channel 0, got %d", event.Channel())
	}

	if event.SampleOffset() != 100 {
		t.Errorf("Expected offset 100, got %d", event.SampleOffset())
	}

	expected := "NoteOn{ch:0, note:60, vel:64, offset:100}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestNoteOffEvent(t *testing.T) {
	event := NoteOffEvent{
		BaseEvent: BaseEvent{
			EventChannel: 1,
			Offset:       200,
		},
		NoteNumber: 72, // C5
		Velocity:   0,
	}

	if event.Type() != EventTypeNoteOff {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOff, event.Type())
	}

	if event.Channel() != 1 {
		t.Errorf("Expected channel 1, got %d", event.Channel())
	}
}

func TestControlChangeEvent(t *testing.T) {
	event := ControlChangeEvent{
		BaseEvent: BaseEvent{
			EventChannel: 0,
			Offset:       50,
		},
		Controller: CCAllNotesOff,
		Value:      0,
	}

	if event.Type() != EventTypeControlChange {
		t.Errorf("Expected type %v, got %v", EventTypeControlChange, event.Type())
	}

	expected := "CC{ch:0, ctrl:123, val:0, offset:50}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestVelocityScaling(t *testing.T) {
	if v := VelocityToUnit(127); v != 1 {
		t.Errorf("Expected 1.0 for velocity 127, got %f", v)
	}
	if v := VelocityToUnit(0); v != 0 {
		t.Errorf("Expected 0.0 for velocity 0, got %f", v)
	}

	for v := 0; v <= 127; v++ {
		if got := UnitToVelocity(VelocityToUnit(uint8(v))); got != uint8(v) {
			t.Errorf("Velocity %d did not survive scaling, got %d", v, got)
		}
	}

	if UnitToVelocity(-1) != 0 || UnitToVelocity(2) != 127 {
		t.Error("Expected out-of-range velocities to clamp")
	}

	event := NoteOnEvent{Velocity: 127}
	if event.NormalizedVelocity() != 1 {
		t.Errorf("Expected normalized velocity 1.0, got %f", event.NormalizedVelocity())
	}
}

func TestNoteNumberToName(t *testing.T) {
	tests := []struct {
		note uint8
		name string
	}{
		{60, "C4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
		{61, "C#4"},
	}

	for _, tt := range tests {
		if name := NoteNumberToName(tt.note); name != tt.name {
			t.Errorf("Note %d: expected %s, got %s", tt.note, tt.name, name)
		}
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		input string
		note  uint8
	}{
		{"60", 60},
		{"c4", 60},
		{"C4", 60},
		{"c#4", 61},
		{"db4", 61},
		{"a4", 69},
		{"b3", 59},
		{"c-1", 0},
		{"g9", 127},
		{" 72 ", 72},
	}

	for _, tt := range tests {
		note, err := ParseNote(tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if note != tt.note {
			t.Errorf("%q: expected %d, got %d", tt.input, tt.note, note)
		}
	}

	for _, bad := range []string{"", "h4", "c", "128", "-1", "g#9", "cx4"} {
		if _, err := ParseNote(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}
