// Package pipeline feeds inbound raw units through a bounded pool of
// workers. Submit never blocks; each worker normalizes one unit into a
// canonical message and hands it to the workflow engine, surviving any
// failure the run throws at it.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
)

// Runner executes one run for a normalized message.
type Runner interface {
	Run(ctx context.Context, msg message.Message) error
}

// NotifyFunc reports a generic processing failure back to the chat the
// raw unit came from. Used when a run dies before (or without) its own
// status reporting.
type NotifyFunc func(ctx context.Context, raw message.Inbound, err error)

type Pipeline struct {
	workers    int
	runner     Runner
	normalizer *Normalizer
	notify     NotifyFunc

	mu     sync.Mutex
	queue  []message.Inbound
	signal chan struct{}

	wg      sync.WaitGroup
	started bool
}

func New(workers int, runner Runner, normalizer *Normalizer, notify NotifyFunc) *Pipeline {
	if workers <= 0 {
		workers = 10
	}
	return &Pipeline{
		workers:    workers,
		runner:     runner,
		normalizer: normalizer,
		notify:     notify,
		signal:     make(chan struct{}, 1),
	}
}

// Submit enqueues a raw unit. The queue is unbounded, so Submit never
// blocks the transport's receive loop.
func (p *Pipeline) Submit(raw message.Inbound) {
	p.mu.Lock()
	p.queue = append(p.queue, raw)
	depth := len(p.queue)
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}

	logger.DebugCF("pipeline", "Raw unit enqueued", map[string]interface{}{
		"chat_id": raw.Metadata.ChatID,
		"kind":    string(raw.Kind),
		"depth":   depth,
	})
}

// Start launches the worker pool. Workers run until ctx is cancelled;
// in-flight runs are abandoned on shutdown with no drain guarantee.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	logger.InfoCF("pipeline", "Starting workers", map[string]interface{}{
		"workers": p.workers,
	})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// QueueDepth reports how many raw units are waiting for a worker.
func (p *Pipeline) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pipeline) workerLoop(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		raw, ok := p.dequeue(ctx)
		if !ok {
			logger.DebugCF("pipeline", "Worker stopped", map[string]interface{}{"worker": id})
			return
		}
		p.runOne(ctx, id, raw)
	}
}

// dequeue pops the next raw unit, blocking until one is available or
// ctx is cancelled.
func (p *Pipeline) dequeue(ctx context.Context) (message.Inbound, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			raw := p.queue[0]
			p.queue = p.queue[1:]
			remaining := len(p.queue)
			p.mu.Unlock()

			// Keep sibling workers draining a burst.
			if remaining > 0 {
				select {
				case p.signal <- struct{}{}:
				default:
				}
			}
			return raw, true
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return message.Inbound{}, false
		case <-p.signal:
		}
	}
}

// runOne drives a single run and is the last line of defense: no error
// or panic from a run may kill the worker.
func (p *Pipeline) runOne(ctx context.Context, workerID int, raw message.Inbound) {
	runID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in run: %v", r)
			logger.ErrorCF("pipeline", "Run panicked", map[string]interface{}{
				"worker": workerID,
				"run_id": runID,
				"panic":  fmt.Sprintf("%v", r),
			})
			if p.notify != nil {
				p.notify(ctx, raw, err)
			}
		}
	}()

	msg, err := p.normalizer.Normalize(ctx, raw)
	if err != nil {
		logger.ErrorCF("pipeline", "Failed to normalize raw unit", map[string]interface{}{
			"worker": workerID,
			"run_id": runID,
			"error":  err.Error(),
		})
		if p.notify != nil {
			p.notify(ctx, raw, err)
		}
		return
	}

	logger.InfoCF("pipeline", "Dispatching run", map[string]interface{}{
		"worker":     workerID,
		"run_id":     runID,
		"message_id": msg.Metadata.MessageID,
		"chat_id":    msg.Metadata.ChatID,
	})

	if err := p.runner.Run(ctx, msg); err != nil {
		// The engine has already reported the failure through the status
		// channel; log it and keep the worker looping.
		logger.WarnCF("pipeline", "Run finished with error", map[string]interface{}{
			"worker": workerID,
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}
