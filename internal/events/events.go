// Package events delivers side effects that must only run after a
// database transaction has committed. Handlers run asynchronously; a
// failed handler is logged and never affects the request that raised
// the event.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// TalkSpeakerChanged fires when a talk is reassigned to a new speaker.
// The upload and manage keys have already been regenerated by then.
type TalkSpeakerChanged struct {
	TalkID     uint
	OldSpeaker string
	NewSpeaker string
}

// SubmissionCreated fires when a new submission version is stored.
type SubmissionCreated struct {
	TalkID       uint
	SubmissionID uint
	Version      int
}

// CommentCreated fires when a visitor posts a comment on a talk.
type CommentCreated struct {
	TalkID    uint
	CommentID uint
}

// Handler reacts to a single event. Implementations receive a fresh
// background-derived context because the originating request may be
// gone by the time they run.
type Handler interface {
	HandleTalkSpeakerChanged(ctx context.Context, ev TalkSpeakerChanged)
	HandleSubmissionCreated(ctx context.Context, ev SubmissionCreated)
	HandleCommentCreated(ctx context.Context, ev CommentCreated)
}

// Dispatcher fans events out to registered handlers in goroutines.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
	log      *slog.Logger
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Wait blocks until all in-flight handlers have finished. Tests use it
// to observe notification side effects deterministically.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) TalkSpeakerChanged(ev TalkSpeakerChanged) {
	d.dispatch(func(ctx context.Context, h Handler) {
		h.HandleTalkSpeakerChanged(ctx, ev)
	})
}

func (d *Dispatcher) SubmissionCreated(ev SubmissionCreated) {
	d.dispatch(func(ctx context.Context, h Handler) {
		h.HandleSubmissionCreated(ctx, ev)
	})
}

func (d *Dispatcher) CommentCreated(ev CommentCreated) {
	d.dispatch(func(ctx context.Context, h Handler) {
		h.HandleCommentCreated(ctx, ev)
	})
}

func (d *Dispatcher) dispatch(call func(ctx context.Context, h Handler)) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		d.wg.Add(1)
		go func(h Handler) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("event handler panicked", "panic", r)
				}
			}()
			call(context.Background(), h)
		}(h)
	}
}
