// Package sweeper retires gates whose time window elapsed or whose member
// cap filled, and tells the admin about each retirement.
package sweeper

import (
	"fmt"
	"log/slog"
	"time"

	"subgate/entity"
	"subgate/lib/sl"
)

// Notifier delivers retirement notices to the administrator.
// Implemented by bot.TgBot.
type Notifier interface {
	NotifyAdmin(msg string) error
}

// Registry is the subset of registry operations the sweeper needs.
type Registry interface {
	List() []*entity.Gate
	Remove(id string) error
}

type Sweeper struct {
	registry Registry
	notifier Notifier
	interval time.Duration
	log      *slog.Logger
	stopCh   chan struct{}
	done     chan struct{}
}

func New(registry Registry, notifier Notifier, interval time.Duration, log *slog.Logger) *Sweeper {
	// time.NewTicker panics on a non-positive interval.
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		registry: registry,
		notifier: notifier,
		interval: interval,
		log:      log.With(sl.Module("sweeper")),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop on its own goroutine until Stop is called.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(time.Now())
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.done
}

// sweep walks a snapshot of all gates and retires every gate that is past
// its end time or at its member cap. Time expiry wins when both hold, so a
// gate produces at most one notice per tick.
func (s *Sweeper) sweep(now time.Time) {
	for _, g := range s.registry.List() {
		switch {
		case g.Expired(now):
			s.retire(g, fmt.Sprintf("Time expired: channel %s (%s) removed", g.ID, g.URL))
		case g.Full():
			s.retire(g, fmt.Sprintf("Limit reached (%d members): channel %s (%s) removed", g.Limit, g.ID, g.URL))
		}
	}
}

func (s *Sweeper) retire(g *entity.Gate, notice string) {
	if err := s.registry.Remove(g.ID); err != nil {
		// Already gone, e.g. deleted by the admin between List and Remove.
		s.log.Debug("gate vanished before retirement", slog.String("id", g.ID), sl.Err(err))
		return
	}
	s.log.Info("retired gate",
		slog.String("id", g.ID),
		slog.String("url", g.URL),
		slog.Int("members", len(g.Members)),
	)
	if err := s.notifier.NotifyAdmin(notice); err != nil {
		s.log.Warn("delivering retirement notice", slog.String("id", g.ID), sl.Err(err))
	}
}
