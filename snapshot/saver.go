package snapshot

import (
	"context"
	"log/slog"
	"time"

	"chat-vault/store"
)

// Saver coalesces save triggers. Services call Notify after every successful
// mutation; the run loop flushes immediately, then absorbs further triggers
// for the debounce interval so bursts produce one write instead of many.
// Save failures are logged and retried on the next trigger; the final flush
// on shutdown happens before Run returns.
type Saver struct {
	store     *store.Store
	persister *Persister
	interval  time.Duration
	log       *slog.Logger
	notify    chan struct{}
}

func NewSaver(s *store.Store, p *Persister, interval time.Duration, log *slog.Logger) *Saver {
	return &Saver{
		store:     s,
		persister: p,
		interval:  interval,
		log:       log,
		notify:    make(chan struct{}, 1),
	}
}

// Notify marks the store dirty. Never blocks; triggers coalesce in the
// single-slot channel.
func (s *Saver) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, flushing on every trigger. It always
// performs one last flush before returning so no committed mutation is lost
// at shutdown.
func (s *Saver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case <-s.notify:
			s.flush()
			select {
			case <-time.After(s.interval):
			case <-ctx.Done():
				s.flush()
				return
			}
		}
	}
}

func (s *Saver) flush() {
	view, err := s.store.Snapshot()
	if err != nil {
		s.log.Error("snapshot capture failed", "error", err)
		return
	}
	if err := s.persister.Save(view); err != nil {
		s.log.Error("snapshot save failed, retrying on next mutation", "error", err)
	}
}
