package envelope

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func TestADSRScenario(t *testing.T) {
	// 50 Hz keeps every stage a handful of samples long.
	env := New(50)
	env.SetADSR(0.2, 0.1, 0.5, 0.2)
	env.NoteOn()

	out := make([]float64, 50)
	for i := range out {
		if i == 40 {
			env.NoteOff()
		}
		out[i] = float64(env.Next())
	}

	for i := 0; i <= 9; i++ {
		want := 0.1 * float64(i+1)
		if math.Abs(out[i]-want) > tolerance {
			t.Errorf("Attack sample %d: expected %.3f, got %.6f", i, want, out[i])
		}
	}
	if out[9] != 1.0 {
		t.Errorf("Attack should land exactly on 1.0, got %.9f", out[9])
	}
	for i := 10; i <= 14; i++ {
		want := 1.0 - 0.1*float64(i-9)
		if math.Abs(out[i]-want) > tolerance {
			t.Errorf("Decay sample %d: expected %.3f, got %.6f", i, want, out[i])
		}
	}
	for i := 15; i < 40; i++ {
		if out[i] != 0.5 {
			t.Errorf("Sustain sample %d: expected 0.5, got %.6f", i, out[i])
		}
	}
	for i := 40; i <= 49; i++ {
		want := 0.5 - 0.05*float64(i-39)
		if math.Abs(out[i]-want) > tolerance {
			t.Errorf("Release sample %d: expected %.3f, got %.6f", i, want, out[i])
		}
	}
	if out[49] != 0 {
		t.Errorf("Release should end at exactly 0, got %.9f", out[49])
	}
	if env.IsActive() {
		t.Errorf("Envelope should be inactive after release, stage %v", env.GetStage())
	}
}

func TestReleaseLastsExactlyReleaseTime(t *testing.T) {
	rate := 1000.0
	env := New(rate)
	env.SetADSR(0.01, 0.02, 0.6, 0.25)
	env.NoteOn()

	// Hold past attack + decay.
	for i := 0; i < int((0.01+0.02)*rate)+5; i++ {
		env.Next()
	}
	if env.GetStage() != StageSustain {
		t.Fatalf("Expected sustain stage, got %v", env.GetStage())
	}

	env.NoteOff()
	samples := 0
	prev := env.GetValue()
	for env.IsActive() {
		v := float64(env.Next())
		if v > prev {
			t.Fatalf("Release must be monotonically decreasing: %f > %f", v, prev)
		}
		prev = v
		samples++
		if samples > 10000 {
			t.Fatal("Release never finished")
		}
	}
	if samples != int(0.25*rate) {
		t.Errorf("Expected release of %d samples, got %d", int(0.25*rate), samples)
	}
}

func TestRetriggerReentersAttack(t *testing.T) {
	env := New(100)
	env.SetADSR(0.1, 0.1, 0.8, 1.0)
	env.NoteOn()
	for i := 0; i < 40; i++ {
		env.Next()
	}
	env.NoteOff()
	for i := 0; i < 10; i++ {
		env.Next()
	}
	if env.GetStage() != StageRelease {
		t.Fatalf("Expected release stage, got %v", env.GetStage())
	}
	before := env.GetValue()

	env.NoteOn()
	if env.GetStage() != StageAttack {
		t.Errorf("NoteOn should force attack, got %v", env.GetStage())
	}
	if v := float64(env.Next()); v <= before {
		t.Errorf("Envelope should rise after retrigger: %f <= %f", v, before)
	}
}

func TestZeroDecaySkipsToSustain(t *testing.T) {
	env := New(100)
	env.SetADSR(0.05, -1, 0.4, 0.1)
	env.NoteOn()

	sawDecay := false
	for i := 0; i < 10; i++ {
		env.Next()
		if env.GetStage() == StageDecay {
			sawDecay = true
		}
	}
	if sawDecay {
		t.Error("Negative decay should skip the decay stage")
	}
	if env.GetStage() != StageSustain {
		t.Errorf("Expected sustain stage, got %v", env.GetStage())
	}
}

func TestNonPositiveAttackIsInstant(t *testing.T) {
	env := New(48000)
	env.SetADSR(0, 0, 1, 0)
	env.NoteOn()

	if v := env.Next(); v != 1.0 {
		t.Errorf("Zero attack should reach 1.0 in one sample, got %f", v)
	}
	if math.IsInf(env.attackStep, 0) || math.IsNaN(env.attackStep) {
		t.Errorf("Attack step must stay finite, got %f", env.attackStep)
	}

	env.NoteOff()
	if v := env.Next(); v != 0 {
		t.Errorf("Zero release should reach 0 in one sample, got %f", v)
	}
	if env.IsActive() {
		t.Error("Envelope should be inactive")
	}
}

func TestSustainIsClamped(t *testing.T) {
	env := New(44100)
	env.SetSustain(1.7)
	if env.GetSustain() != 1.0 {
		t.Errorf("Expected sustain clamped to 1.0, got %f", env.GetSustain())
	}
	env.SetSustain(-0.3)
	if env.GetSustain() != 0.0 {
		t.Errorf("Expected sustain clamped to 0.0, got %f", env.GetSustain())
	}
}

func TestParameterChangeKeepsState(t *testing.T) {
	env := New(100)
	env.SetADSR(0.5, 0.1, 0.5, 0.5)
	env.NoteOn()
	for i := 0; i < 10; i++ {
		env.Next()
	}
	value := env.GetValue()

	env.SetAttack(0.1)
	if env.GetStage() != StageAttack || env.GetValue() != value {
		t.Errorf("Changing attack should keep stage and value, got %v %f", env.GetStage(), env.GetValue())
	}
	next := float64(env.Next())
	if math.Abs(next-(value+0.1)) > tolerance {
		t.Errorf("Expected new slope 0.1 per sample, got %f -> %f", value, next)
	}
}

func TestInactiveOutputsZero(t *testing.T) {
	env := New(44100)
	for i := 0; i < 5; i++ {
		if env.Next() != 0 {
			t.Fatal("Inactive envelope must output 0")
		}
	}

	buf := []float32{1, 1, 1}
	env.ProcessMultiply(buf)
	for i, v := range buf {
		if v != 0 {
			t.Errorf("Sample %d: expected 0, got %f", i, v)
		}
	}
}

func TestZeroSustainReleaseTerminates(t *testing.T) {
	env := New(100)
	env.SetADSR(1.0, 0.1, 0.0, 0.1)
	env.NoteOn()
	for i := 0; i < 30; i++ {
		env.Next()
	}
	env.NoteOff()
	for i := 0; i < 100 && env.IsActive(); i++ {
		env.Next()
	}
	if env.IsActive() {
		t.Error("Release from mid-attack with zero sustain must terminate")
	}
}
