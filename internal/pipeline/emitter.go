package pipeline

import (
	"context"
	"sync"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
)

const (
	PhaseOCR         = "ocr"
	PhaseTranslation = "translation"
	PhaseComplete    = "complete"
	PhaseError       = "error"
)

// Event is one progress message of a pipeline run.
type Event struct {
	Phase  string                 `json:"phase"`
	Done   int                    `json:"done,omitempty"`
	Total  int                    `json:"total,omitempty"`
	Result *models.RecordResponse `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Emitter delivers the events of one run, in order, to a single consumer.
// Once ctx is done every further event is discarded.
type Emitter struct {
	ctx    context.Context
	events chan Event
	once   sync.Once
}

func NewEmitter(ctx context.Context, buffer int) *Emitter {
	return &Emitter{
		ctx:    ctx,
		events: make(chan Event, buffer),
	}
}

// Emit blocks until the consumer accepts the event or the consumer is gone.
// It reports whether the event was delivered.
func (e *Emitter) Emit(ev Event) bool {
	if e.ctx.Err() != nil {
		return false
	}
	select {
	case e.events <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Close ends the stream. It must only be called by the producer, after the
// terminal event.
func (e *Emitter) Close() {
	e.once.Do(func() { close(e.events) })
}
