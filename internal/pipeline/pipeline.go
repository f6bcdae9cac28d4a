package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Extractor acquires the text of one uploaded file.
type Extractor interface {
	Acquire(ctx context.Context, content []byte, fileType string) (string, error)
}

// Translator translates text on behalf of the user owning token.
type Translator interface {
	Translate(ctx context.Context, text, token string) (string, error)
}

type Input struct {
	FileID   string
	FileType string
	Content  []byte
}

// Outcome is the result of one stage for one file. Failures are carried in
// Err and Text holds the inline error marker.
type Outcome struct {
	Text     string
	Err      error
	Duration time.Duration
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

type Slot struct {
	Input

	Extraction  Outcome
	Translation Outcome

	extracted  bool
	eligible   bool
	translated bool
}

// Processed reports whether every stage that applies to the file ran. Files
// skipped because the run was cancelled are not processed.
func (s *Slot) Processed() bool {
	if !s.extracted {
		return false
	}
	return !s.eligible || s.translated
}

type Orchestrator struct {
	extractor   Extractor
	translator  Translator
	concurrency int
	logger      *utils.Logger
}

func NewOrchestrator(extractor Extractor, translator Translator, concurrency int, logger *utils.Logger) *Orchestrator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		extractor:   extractor,
		translator:  translator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run extracts and translates every input and returns one slot per input, in
// input order. Progress is reported through emit. Run never emits the
// terminal event.
//
// Cancelling ctx stops scheduling new work. Calls already made to the
// extractor or translator run to completion.
func (o *Orchestrator) Run(ctx context.Context, inputs []Input, token string, emit *Emitter) []Slot {
	slots := make([]Slot, len(inputs))
	for i, in := range inputs {
		slots[i].Input = in
	}

	start := time.Now()
	o.extract(ctx, slots, emit)
	eligible := o.translate(ctx, slots, token, emit)

	o.logger.Info("Pipeline run finished",
		"files", len(slots),
		"translated", eligible,
		"cancelled", ctx.Err() != nil,
		"duration_ms", time.Since(start).Milliseconds())

	return slots
}

func (o *Orchestrator) extract(ctx context.Context, slots []Slot, emit *Emitter) {
	total := len(slots)

	for i := range slots {
		if ctx.Err() != nil {
			o.logger.Warn("Extraction stopped, request cancelled", "done", i, "total", total)
			return
		}

		slot := &slots[i]
		start := time.Now()
		text, err := o.extractor.Acquire(context.WithoutCancel(ctx), slot.Content, slot.FileType)
		slot.Extraction.Duration = time.Since(start)

		if err != nil {
			o.logger.Error("Text extraction failed", "file_id", slot.FileID, "error", err)
			slot.Extraction.Err = err
			slot.Extraction.Text = fmt.Sprintf("[OCR error: %v]", cause(err))
		} else {
			slot.Extraction.Text = text
			slot.eligible = strings.TrimSpace(text) != ""
		}
		slot.extracted = true

		emit.Emit(Event{Phase: PhaseOCR, Done: i + 1, Total: total})
	}
}

// translate runs the eligible slots through the translator with bounded
// concurrency and returns how many were eligible. Only the consuming loop
// below touches the done counter.
func (o *Orchestrator) translate(ctx context.Context, slots []Slot, token string, emit *Emitter) int {
	var eligible []int
	for i := range slots {
		if slots[i].eligible {
			eligible = append(eligible, i)
		}
	}

	total := len(eligible)
	if total == 0 {
		return 0
	}

	completed := make(chan int)

	go func() {
		defer close(completed)

		var g errgroup.Group
		g.SetLimit(o.concurrency)

		for _, i := range eligible {
			if ctx.Err() != nil {
				o.logger.Warn("Translation scheduling stopped, request cancelled", "file_id", slots[i].FileID)
				break
			}

			g.Go(func() error {
				// queued behind the limit while the client went away
				if ctx.Err() != nil {
					return nil
				}

				slot := &slots[i]
				start := time.Now()
				text, err := o.translator.Translate(context.WithoutCancel(ctx), slot.Extraction.Text, token)
				slot.Translation.Duration = time.Since(start)

				if err != nil {
					o.logger.Error("Translation failed", "file_id", slot.FileID, "error", err)
					slot.Translation.Err = err
					slot.Translation.Text = fmt.Sprintf("[Translation error: %v]", cause(err))
				} else {
					slot.Translation.Text = text
				}
				slot.translated = true

				completed <- i
				return nil
			})
		}

		_ = g.Wait()
	}()

	done := 0
	for range completed {
		done++
		emit.Emit(Event{Phase: PhaseTranslation, Done: done, Total: total})
	}

	return total
}

// cause strips the package level wrapper so markers only carry the
// underlying reason.
func cause(err error) error {
	var extractionErr *models.ExtractionError
	if errors.As(err, &extractionErr) && extractionErr.Cause != nil {
		return extractionErr.Cause
	}
	var translationErr *models.TranslationError
	if errors.As(err, &translationErr) && translationErr.Cause != nil {
		return translationErr.Cause
	}
	return err
}
