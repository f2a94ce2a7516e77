package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/observability/metrics"
	"github.com/kapalua/ordersbot/pkg/logging"
)

type turnSource interface {
	LatestReceived(ctx context.Context) ([]chatlog.TurnRecord, error)
	AnsweredAfter(ctx context.Context, clientID int, ts time.Time) (bool, error)
}

type customerResolver interface {
	CustomerByPhone(ctx context.Context, phone string) (catalog.Customer, error)
}

type managerResolver interface {
	ManagerByID(ctx context.Context, id int) (chatlog.Manager, error)
}

type messageHandler interface {
	HandleIncoming(ctx context.Context, receiver, sender, messageText string) error
}

// Sweeper periodically re-dispatches customer messages nobody answered.
// A message qualifies when it is the newest received turn for its
// customer, still unanswered, non-empty, aged inside [minAge, maxAge],
// and both parties resolve. Older messages are considered abandoned.
type Sweeper struct {
	turns     turnSource
	customers customerResolver
	managers  managerResolver
	handler   messageHandler

	interval time.Duration
	minAge   time.Duration
	maxAge   time.Duration

	metrics *metrics.BotMetrics
	logger  *logging.Logger
	now     func() time.Time
}

func NewSweeper(turns turnSource, customers customerResolver, managers managerResolver, handler messageHandler, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		turns:     turns,
		customers: customers,
		managers:  managers,
		handler:   handler,
		interval:  60 * time.Second,
		minAge:    15 * time.Minute,
		maxAge:    30 * time.Minute,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Sweeper) WithAgeWindow(min, max time.Duration) *Sweeper {
	if min > 0 && max >= min {
		s.minAge = min
		s.maxAge = max
	}
	return s
}

func (s *Sweeper) WithMetrics(m *metrics.BotMetrics) *Sweeper {
	s.metrics = m
	return s
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one cycle. Failures on a single customer are logged and the
// cycle moves on; a failed fetch skips the whole cycle.
func (s *Sweeper) sweep(ctx context.Context) {
	latest, err := s.turns.LatestReceived(ctx)
	if err != nil {
		s.logger.Error("sweep: latest received fetch failed", "error", err)
		return
	}

	now := s.now().UTC()
	dispatched := 0
	for _, rec := range latest {
		if ctx.Err() != nil {
			return
		}
		if s.dispatchUnattended(ctx, rec, now) {
			dispatched++
		}
	}
	s.metrics.ObserveSweepCycle(dispatched)
	if dispatched > 0 {
		s.logger.Info("sweep cycle complete", "dispatched", dispatched, "candidates", len(latest))
	}
}

func (s *Sweeper) dispatchUnattended(ctx context.Context, rec chatlog.TurnRecord, now time.Time) bool {
	answered, err := s.turns.AnsweredAfter(ctx, rec.ClientID, rec.Timestamp)
	if err != nil {
		s.logger.Error("sweep: answered check failed", "client_id", rec.ClientID, "error", err)
		return false
	}
	if answered {
		return false
	}
	if rec.Content == "" {
		return false
	}

	// Stored timestamps without a zone are assumed UTC.
	age := now.Sub(rec.Timestamp.UTC())
	if age < s.minAge || age > s.maxAge {
		return false
	}

	if _, err := s.customers.CustomerByPhone(ctx, rec.ClientPhone); err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			s.logger.Error("sweep: customer lookup failed", "client_id", rec.ClientID, "error", err)
		}
		return false
	}
	manager, err := s.managers.ManagerByID(ctx, rec.UserID)
	if err != nil {
		if !errors.Is(err, chatlog.ErrNotFound) {
			s.logger.Error("sweep: manager lookup failed", "client_id", rec.ClientID, "error", err)
		} else {
			s.logger.Info("sweep: customer has no assigned manager", "client_id", rec.ClientID)
		}
		return false
	}

	s.logger.Info("sweep: dispatching unattended message", "client_id", rec.ClientID)
	if err := s.handler.HandleIncoming(ctx, manager.Phone, rec.ClientPhone, rec.Content); err != nil {
		s.logger.Error("sweep: handling failed", "client_id", rec.ClientID, "error", err)
		return false
	}
	return true
}
