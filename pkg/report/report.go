package report

import (
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("report", fx.Provide(NewReporter))

// Event describes a write the store rejected for authorization reasons:
// which operation was attempted, against what, and with which payload.
type Event struct {
	Op      string `json:"op"`
	Path    string `json:"path"`
	Payload any    `json:"payload"`
	Err     error  `json:"-"`
}

// Reporter is the process-wide sink for permission-denied store errors,
// kept separate from generic failures so they stay diagnosable while the
// caller only ever sees the generic message.
type Reporter struct {
	mu   sync.RWMutex
	subs []chan Event
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Subscribe returns a buffered channel receiving future events. Slow
// consumers drop events rather than block publishers.
func (r *Reporter) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

func (r *Reporter) Publish(e Event) {
	zap.L().Warn("store rejected write for authorization reasons",
		zap.String("op", e.Op),
		zap.String("path", e.Path),
		zap.Any("payload", e.Payload),
		zap.Error(e.Err),
	)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// IsPermissionDenied reports whether err is a store-side authorization
// rejection (Postgres SQLSTATE 42501) as opposed to a generic failure.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42501"
	}

	return strings.Contains(strings.ToLower(err.Error()), "permission denied")
}
