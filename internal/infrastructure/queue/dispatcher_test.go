package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
)

type recordingMailer struct {
	mu        sync.Mutex
	delivered []ports.MailTask
	next      int
	err       error
	signal    chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{signal: make(chan struct{}, 16)}
}

func (m *recordingMailer) record(task ports.MailTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, task)
	m.signal <- struct{}{}
	return m.err
}

func (m *recordingMailer) SendVerification(_ context.Context, email, code string) error {
	return m.record(ports.MailTask{Kind: ports.MailVerification, Email: email, Code: code})
}

func (m *recordingMailer) SendWelcome(_ context.Context, email, name string) error {
	return m.record(ports.MailTask{Kind: ports.MailWelcome, Email: email, Name: name})
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, url string) error {
	return m.record(ports.MailTask{Kind: ports.MailReset, Email: email, URL: url})
}

func (m *recordingMailer) SendResetSuccess(_ context.Context, email string) error {
	return m.record(ports.MailTask{Kind: ports.MailResetSuccess, Email: email})
}

func (m *recordingMailer) wait(t *testing.T) ports.MailTask {
	t.Helper()
	select {
	case <-m.signal:
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery within deadline")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task := m.delivered[m.next]
	m.next++
	return task
}

type stubDedup struct {
	duplicate bool
	marked    []string
	mu        sync.Mutex
}

func (d *stubDedup) IsDuplicate(_ context.Context, key string) (bool, error) {
	return d.duplicate, nil
}

func (d *stubDedup) Mark(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.marked = append(d.marked, key)
	return nil
}

func TestDispatcher_DeliversTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	d := NewDispatcher(mailer, nil, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.MailTask{Kind: ports.MailVerification, Email: "a@x.com", Code: "123456"})

	got := mailer.wait(t)
	if got.Kind != ports.MailVerification || got.Email != "a@x.com" || got.Code != "123456" {
		t.Fatalf("unexpected delivery: %+v", got)
	}
}

func TestDispatcher_RoutesAllKinds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	d := NewDispatcher(mailer, nil, zerolog.Nop())
	d.Start(ctx)

	tasks := []ports.MailTask{
		{Kind: ports.MailVerification, Email: "a@x.com", Code: "111111"},
		{Kind: ports.MailWelcome, Email: "a@x.com", Name: "A"},
		{Kind: ports.MailReset, Email: "a@x.com", URL: "http://c/reset-password/t"},
		{Kind: ports.MailResetSuccess, Email: "a@x.com"},
	}
	for _, task := range tasks {
		d.Enqueue(task)
	}

	seen := make(map[ports.MailKind]bool)
	for range tasks {
		got := mailer.wait(t)
		seen[got.Kind] = true
	}
	for _, task := range tasks {
		if !seen[task.Kind] {
			t.Fatalf("kind %s never delivered", task.Kind)
		}
	}
}

// A delivery failure is the worker's problem: it is logged and dropped, never
// retried, and never reaches the enqueuing operation.
func TestDispatcher_FailureDoesNotPropagate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	mailer.err = errors.New("smtp down")
	dedup := &stubDedup{}
	d := NewDispatcher(mailer, dedup, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.MailTask{Kind: ports.MailWelcome, Email: "a@x.com", Name: "A"})
	mailer.wait(t)

	// Failed deliveries must not be marked as done.
	time.Sleep(50 * time.Millisecond)
	dedup.mu.Lock()
	defer dedup.mu.Unlock()
	if len(dedup.marked) != 0 {
		t.Fatalf("failed delivery was marked delivered")
	}
}

func TestDispatcher_DedupSkipsDuplicate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	d := NewDispatcher(mailer, &stubDedup{duplicate: true}, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.MailTask{Kind: ports.MailResetSuccess, Email: "a@x.com"})

	select {
	case <-mailer.signal:
		t.Fatalf("duplicate task must not be delivered")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTaskKey_DistinguishesPayloads(t *testing.T) {
	a := taskKey(ports.MailTask{Kind: ports.MailReset, Email: "a@x.com", URL: "http://c/reset-password/t1"})
	b := taskKey(ports.MailTask{Kind: ports.MailReset, Email: "a@x.com", URL: "http://c/reset-password/t2"})
	if a == b {
		t.Fatalf("distinct payloads produced the same key")
	}

	c := taskKey(ports.MailTask{Kind: ports.MailReset, Email: "a@x.com", URL: "http://c/reset-password/t1"})
	if a != c {
		t.Fatalf("identical payloads produced different keys")
	}
}
