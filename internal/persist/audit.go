package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Auditor records chat lines and failed admin logins. Calls never block the
// game loop.
type Auditor interface {
	RecordChat(sender, message, ip string)
	RecordFailedLogin(name, ip string)
	Close()
}

// NopAuditor is used when the database is disabled.
type NopAuditor struct{}

func (NopAuditor) RecordChat(string, string, string) {}
func (NopAuditor) RecordFailedLogin(string, string)  {}
func (NopAuditor) Close()                            {}

type ChatStore interface {
	Insert(ctx context.Context, row ChatRow) error
}

type LoginStore interface {
	Insert(ctx context.Context, row FailedLoginRow) error
}

type auditJob struct {
	chat  *ChatRow
	login *FailedLoginRow
}

// AuditWriter persists audit rows on a background goroutine. When its queue
// is full new rows are dropped with a warning.
type AuditWriter struct {
	chats   ChatStore
	logins  LoginStore
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time

	jobs      chan auditJob
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	closed  bool
	dropped int
}

func NewAuditWriter(chats ChatStore, logins LoginStore, queueSize int, timeout time.Duration, log *zap.Logger) *AuditWriter {
	if queueSize <= 0 {
		queueSize = 1
	}
	w := &AuditWriter{
		chats:   chats,
		logins:  logins,
		timeout: timeout,
		log:     log,
		now:     time.Now,
		jobs:    make(chan auditJob, queueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AuditWriter) RecordChat(sender, message, ip string) {
	w.enqueue(auditJob{chat: &ChatRow{Username: sender, Message: message, IP: ip, SentAt: w.now()}})
}

func (w *AuditWriter) RecordFailedLogin(name, ip string) {
	w.enqueue(auditJob{login: &FailedLoginRow{Username: name, IP: ip, AttemptedAt: w.now()}})
}

func (w *AuditWriter) enqueue(j auditJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.jobs <- j:
	default:
		w.dropped++
		w.log.Warn("audit queue full, row dropped", zap.Int("dropped_total", w.dropped))
	}
}

// Dropped returns how many rows were discarded because the queue was full.
func (w *AuditWriter) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

func (w *AuditWriter) run() {
	defer close(w.done)
	for j := range w.jobs {
		w.write(j)
	}
}

func (w *AuditWriter) write(j auditJob) {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	switch {
	case j.chat != nil:
		if err := w.chats.Insert(ctx, *j.chat); err != nil {
			w.log.Error("chat audit write failed", zap.String("user", j.chat.Username), zap.Error(err))
		}
	case j.login != nil:
		if err := w.logins.Insert(ctx, *j.login); err != nil {
			w.log.Error("login audit write failed", zap.String("user", j.login.Username), zap.Error(err))
		}
	}
}

// Close stops accepting rows and waits for queued ones to be written.
func (w *AuditWriter) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.jobs)
		w.mu.Unlock()
	})
	<-w.done
}
