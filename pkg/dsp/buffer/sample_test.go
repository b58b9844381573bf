package buffer

import (
	"testing"
)

func TestNewSampleBufferDefaults(t *testing.T) {
	buf := NewSampleBuffer(0)
	if buf.Cap() != 1 {
		t.Errorf("Expected capacity 1, got %d", buf.Cap())
	}
	if buf.Len() != 0 {
		t.Errorf("Expected length 0 for coincident cursors, got %d", buf.Len())
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	input := []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7}
	buf := NewSampleBuffer(len(input))

	for _, v := range input {
		buf.Push(v)
	}
	for i := 0; i < buf.Cap(); i++ {
		if got := buf.Pop(); got != input[i] {
			t.Errorf("Pop %d: expected %f, got %f", i, input[i], got)
		}
	}
}

func TestPutPeekDoNotAdvance(t *testing.T) {
	buf := NewSampleBuffer(4)
	buf.Put(0.5)
	buf.Put(0.75)
	if got := buf.Peek(); got != 0.75 {
		t.Errorf("Expected 0.75 at cursor, got %f", got)
	}
	if got := buf.Peek(); got != 0.75 {
		t.Errorf("Peek should not advance, got %f", got)
	}
	buf.Push(1)
	if got := buf.Pop(); got != 1 {
		t.Errorf("Expected Push to overwrite the Put slot, got %f", got)
	}
}

func TestLengthFollowsCursors(t *testing.T) {
	buf := NewSampleBuffer(8)
	buf.Push(1)
	buf.Push(2)
	buf.Push(3)
	if buf.Len() != 3 {
		t.Errorf("Expected length 3 after three pushes, got %d", buf.Len())
	}
	buf.Pop()
	if buf.Len() != 2 {
		t.Errorf("Expected length 2 after a pop, got %d", buf.Len())
	}
	if buf.Cap() != 8 {
		t.Errorf("Capacity should not change, got %d", buf.Cap())
	}

	for i := 0; i < 7; i++ {
		buf.Push(0)
	}
	if buf.Len() != 1 {
		t.Errorf("Expected length 1 after the write cursor wrapped, got %d", buf.Len())
	}
	buf.Pop()
	if buf.Len() != 0 {
		t.Errorf("Expected length 0 once the cursors meet, got %d", buf.Len())
	}
}

func TestGetWraps(t *testing.T) {
	buf := NewSampleBuffer(4)
	buf.Load([]float32{10, 11, 12, 13})

	cases := map[int]float32{0: 10, 3: 13, 4: 10, 9: 11, -1: 13, -5: 13}
	for idx, want := range cases {
		if got := buf.Get(idx); got != want {
			t.Errorf("Get(%d): expected %f, got %f", idx, want, got)
		}
	}
}

func TestGetFracIntegralMatchesGet(t *testing.T) {
	buf := NewSampleBuffer(16)
	for i := 0; i < 16; i++ {
		buf.Push(float32(i*i) * 0.01)
	}
	for i := -3; i < 20; i++ {
		if buf.GetFrac(float64(i)) != buf.Get(i) {
			t.Errorf("GetFrac(%d) = %f, Get(%d) = %f", i, buf.GetFrac(float64(i)), i, buf.Get(i))
		}
	}
}

func TestGetFracInterpolatesMonotonically(t *testing.T) {
	buf := NewSampleBuffer(4)
	buf.Load([]float32{0, 1, -1, 0.5})

	for i := 0; i < 4; i++ {
		lo, hi := buf.Get(i), buf.Get(i+1)
		prev := lo
		for step := 1; step <= 10; step++ {
			v := buf.GetFrac(float64(i) + float64(step)*0.1)
			if hi >= lo && v < prev-1e-6 {
				t.Errorf("Segment %d not increasing at step %d: %f < %f", i, step, v, prev)
			}
			if hi < lo && v > prev+1e-6 {
				t.Errorf("Segment %d not decreasing at step %d: %f > %f", i, step, v, prev)
			}
			prev = v
		}
	}

	if got := buf.GetFrac(0.5); got != 0.5 {
		t.Errorf("Expected midpoint 0.5, got %f", got)
	}
	// Between the last sample and the wrapped first one.
	if got := buf.GetFrac(3.5); got != 0.25 {
		t.Errorf("Expected wrapped midpoint 0.25, got %f", got)
	}
}

func TestResizeResetsContents(t *testing.T) {
	buf := NewSampleBuffer(4)
	buf.Load([]float32{1, 2, 3, 4})
	buf.Pop()

	buf.Resize(6, 0.25)
	if buf.Cap() != 6 {
		t.Fatalf("Expected capacity 6, got %d", buf.Cap())
	}
	for i := 0; i < 6; i++ {
		if buf.Get(i) != 0.25 {
			t.Errorf("Slot %d: expected fill 0.25, got %f", i, buf.Get(i))
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Expected cursors reset, length %d", buf.Len())
	}
}

func TestReserveAvoidsAllocation(t *testing.T) {
	buf := NewSampleBuffer(1)
	buf.Reserve(1024)
	src := make([]float32, 1000)

	allocs := testing.AllocsPerRun(100, func() {
		buf.Load(src)
		buf.Resize(512, 0)
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations after Reserve, got %.1f", allocs)
	}
}

func TestSnapshotIsPrivateCopy(t *testing.T) {
	buf := NewSampleBuffer(3)
	buf.Load([]float32{1, 2, 3})

	snap := buf.Snapshot(nil)
	snap[0] = 99
	if buf.Get(0) != 1 {
		t.Errorf("Snapshot must not alias the live buffer")
	}
}

func BenchmarkGetFrac(b *testing.B) {
	buf := NewSampleBuffer(48000)
	for i := 0; i < 48000; i++ {
		buf.Push(float32(i%100) / 100)
	}
	phase := 0.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = buf.GetFrac(phase)
		phase += 1.4983
	}
}
