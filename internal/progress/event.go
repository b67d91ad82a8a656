package progress

import (
	"context"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	KindProgress Kind = "progress"
	KindError    Kind = "error"
	KindComplete Kind = "complete"
)

// Event is one progress notification. Day and Total are set when the event
// comes from a month run.
type Event struct {
	Kind    Kind      `json:"kind"`
	Day     int       `json:"day,omitempty"`
	Total   int       `json:"total,omitempty"`
	Step    string    `json:"step"`
	Message string    `json:"message"`
	Error   string    `json:"error,omitempty"`
	Date    string    `json:"date,omitempty"`
	Mode    string    `json:"mode,omitempty"`
	Code    string    `json:"code,omitempty"`
	Time    time.Time `json:"time"`
	Err     error     `json:"-"`
}

// Sink receives events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Func adapts a function to Sink.
type Func func(Event)

// Emit implements Sink.
func (f Func) Emit(_ context.Context, event Event) {
	if f != nil {
		f(event)
	}
}

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// Discard drops every event.
var Discard Sink = discard{}

// Multi fans events out to every non-nil sink in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}

type dayKey struct{}

type dayPosition struct {
	day   int
	total int
}

// ContextWithDay records a day's position within a month run on ctx.
func ContextWithDay(ctx context.Context, day, total int) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, dayKey{}, dayPosition{day: day, total: total})
}

// DayFromContext returns the position stored by ContextWithDay.
func DayFromContext(ctx context.Context) (day, total int, ok bool) {
	if ctx == nil {
		return 0, 0, false
	}
	pos, ok := ctx.Value(dayKey{}).(dayPosition)
	if !ok {
		return 0, 0, false
	}
	return pos.day, pos.total, true
}

type daySink struct {
	sink  Sink
	day   int
	total int
}

// WithDay returns a sink that stamps day and total onto every event before
// forwarding it with the caller's context.
func WithDay(sink Sink, day, total int) Sink {
	if sink == nil {
		sink = Discard
	}
	return daySink{sink: sink, day: day, total: total}
}

// Emit implements Sink.
func (s daySink) Emit(ctx context.Context, event Event) {
	event.Day = s.day
	event.Total = s.total
	s.sink.Emit(ContextWithDay(ctx, s.day, s.total), event)
}

// Recorder collects events in memory.
type Recorder struct {
	Events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(_ context.Context, event Event) {
	r.Events = append(r.Events, event)
}

// Count returns the number of recorded events of kind.
func (r *Recorder) Count(kind Kind) int {
	n := 0
	for _, event := range r.Events {
		if event.Kind == kind {
			n++
		}
	}
	return n
}
