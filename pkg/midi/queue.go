package midi

import (
	"sort"
	"sync"
)

// EventQueue holds events ordered by sample offset. Events with the same
// offset keep their insertion order.
type EventQueue struct {
	events []Event
	mu     sync.Mutex
	sorted bool
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		events: make([]Event, 0, 128),
		sorted: true,
	}
}

func (q *EventQueue) Add(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, event)
	q.sorted = false
}

// AppendEventsInRange appends the events with offsets in [startSample,
// endSample) to dst. It does not allocate when dst has room.
func (q *EventQueue) AppendEventsInRange(dst []Event, startSample, endSample int64) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sorted {
		q.sortEvents()
	}

	startIdx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].SampleOffset() >= startSample
	})
	for i := startIdx; i < len(q.events) && q.events[i].SampleOffset() < endSample; i++ {
		dst = append(dst, q.events[i])
	}
	return dst
}

// GetEventsInRange returns a copy of the events in [startSample, endSample).
func (q *EventQueue) GetEventsInRange(startSample, endSample int64) []Event {
	return q.AppendEventsInRange(nil, startSample, endSample)
}

func (q *EventQueue) GetAllEvents() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sorted {
		q.sortEvents()
	}

	result := make([]Event, len(q.events))
	copy(result, q.events)
	return result
}

func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = q.events[:0]
	q.sorted = true
}

// RemoveProcessedEvents drops every event at or before upToSample.
func (q *EventQueue) RemoveProcessedEvents(upToSample int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sorted {
		q.sortEvents()
	}

	keepIdx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].SampleOffset() > upToSample
	})

	if keepIdx > 0 {
		copy(q.events, q.events[keepIdx:])
		q.events = q.events[:len(q.events)-keepIdx]
	}
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *EventQueue) sortEvents() {
	sort.SliceStable(q.events, func(i, j int) bool {
		return q.events[i].SampleOffset() < q.events[j].SampleOffset()
	})
	q.sorted = true
}
