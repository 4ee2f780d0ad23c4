package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JoyBrar2001/advanced-auth/internal/api/metrics"
	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// DedupGuard abstracts the idempotency store (Redis). A duplicate task is one
// whose content key was already delivered recently.
type DedupGuard interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// Dispatcher is the bounded task queue between the account state machine and
// the notification sink. Account operations enqueue and move on; delivery
// failures are logged by the workers and never surface to the caller, so the
// already-persisted account mutation stands regardless of mail outcome.
type Dispatcher struct {
	tasks  chan ports.MailTask
	mailer ports.Mailer
	dedup  DedupGuard
	log    zerolog.Logger
}

// NewDispatcher creates a Dispatcher delivering through mailer. dedup may be
// nil, in which case every task is delivered.
func NewDispatcher(mailer ports.Mailer, dedup DedupGuard, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		tasks:  make(chan ports.MailTask, channelBuffer),
		mailer: mailer,
		dedup:  dedup,
		log:    log,
	}
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < defaultWorkers; i++ {
		go d.runWorker(ctx, i)
	}
}

// Enqueue hands a task to the queue without blocking the account operation.
// When the buffer is full the task is dropped and logged; there is no retry
// path anywhere in the pipeline.
func (d *Dispatcher) Enqueue(task ports.MailTask) {
	select {
	case d.tasks <- task:
		metrics.MailQueueDepth.Set(float64(len(d.tasks)))
	default:
		metrics.MailSentTotal.WithLabelValues(string(task.Kind), "dropped").Inc()
		d.log.Error().
			Str("kind", string(task.Kind)).
			Str("email", task.Email).
			Msg("mail queue full, task dropped")
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-d.tasks:
			if !ok {
				return
			}
			metrics.MailQueueDepth.Set(float64(len(d.tasks)))
			d.process(ctx, id, task)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, workerID int, task ports.MailTask) {
	taskID := uuid.NewString()

	// Idempotency check: skip an identical recently-delivered task. Guard
	// failures fail open: it is better to double-send than to silently drop.
	if d.dedup != nil {
		dup, err := d.dedup.IsDuplicate(ctx, taskKey(task))
		if err != nil {
			d.log.Warn().Err(err).Str("task_id", taskID).Msg("dedup check failed, sending anyway")
		} else if dup {
			metrics.MailSentTotal.WithLabelValues(string(task.Kind), "dedup").Inc()
			d.log.Debug().Str("task_id", taskID).Str("kind", string(task.Kind)).Msg("duplicate mail skipped")
			return
		}
	}

	start := time.Now()
	err := d.deliver(ctx, task)
	metrics.MailSendDuration.WithLabelValues(string(task.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailSentTotal.WithLabelValues(string(task.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("task_id", taskID).
			Str("kind", string(task.Kind)).
			Str("email", task.Email).
			Int("worker_id", workerID).
			Msg("mail delivery failed")
		return
	}

	if d.dedup != nil {
		if err := d.dedup.Mark(ctx, taskKey(task)); err != nil {
			d.log.Warn().Err(err).Str("task_id", taskID).Msg("failed to set dedup key")
		}
	}

	metrics.MailSentTotal.WithLabelValues(string(task.Kind), "sent").Inc()
	d.log.Info().
		Str("task_id", taskID).
		Str("kind", string(task.Kind)).
		Str("email", task.Email).
		Msg("mail delivered")
}

func (d *Dispatcher) deliver(ctx context.Context, task ports.MailTask) error {
	switch task.Kind {
	case ports.MailVerification:
		return d.mailer.SendVerification(ctx, task.Email, task.Code)
	case ports.MailWelcome:
		return d.mailer.SendWelcome(ctx, task.Email, task.Name)
	case ports.MailReset:
		return d.mailer.SendPasswordReset(ctx, task.Email, task.URL)
	case ports.MailResetSuccess:
		return d.mailer.SendResetSuccess(ctx, task.Email)
	default:
		return fmt.Errorf("unknown mail kind %q", task.Kind)
	}
}

// taskKey maps a task's content to a stable dedup key. Two tasks with the
// same kind and payload collide; a new reset token yields a new key.
func taskKey(task ports.MailTask) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s|%s|%s|%s", task.Kind, task.Email, task.Code, task.URL, task.Name)
	return fmt.Sprintf("%s:%x", task.Kind, h.Sum64())
}
