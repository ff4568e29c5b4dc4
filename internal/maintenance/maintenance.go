// Package maintenance runs hookrelay's background schedules: a periodic
// forced flush of the webhook queue and journal pruning.
package maintenance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hookrelay/internal/journal"
	"hookrelay/pkg/logx"
)

const defaultPruneMaxAge = 7 * 24 * time.Hour

// Flusher is the queue-drain hook; satisfied by discord.Client.
type Flusher interface {
	Flush(ctx context.Context) error
}

type Config struct {
	FlushSchedule string
	PruneSchedule string
	PruneMaxAge   time.Duration
}

type Service struct {
	mu sync.Mutex

	log     logx.Logger
	flusher Flusher
	store   journal.Store

	parser cron.Parser
	c      *cron.Cron
	cfg    Config
}

func New(cfg Config, flusher Flusher, store journal.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		flusher: flusher,
		store:   store,
		log:     log.With(logx.String("comp", "maintenance")),
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Validate checks the cron specs without starting anything.
func (s *Service) Validate(cfg Config) error {
	for _, spec := range []struct{ name, val string }{
		{"flush_schedule", cfg.FlushSchedule},
		{"prune_schedule", cfg.PruneSchedule},
	} {
		if strings.TrimSpace(spec.val) == "" {
			continue
		}
		if _, err := s.parser.Parse(spec.val); err != nil {
			return fmt.Errorf("%s: %w", spec.name, err)
		}
	}
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.startLocked(ctx)
}

// Apply restarts the schedules with a new config.
func (s *Service) Apply(ctx context.Context, cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	if s.c == nil {
		return
	}
	s.stopLocked()
	s.startLocked(ctx)
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) startLocked(ctx context.Context) {
	c := cron.New(cron.WithParser(s.parser))
	registered := 0

	if spec := strings.TrimSpace(s.cfg.FlushSchedule); spec != "" && s.flusher != nil {
		_, err := c.AddFunc(spec, func() { s.runFlush(ctx) })
		if err != nil {
			s.log.Warn("flush schedule rejected", logx.String("spec", spec), logx.Err(err))
		} else {
			registered++
		}
	}
	if spec := strings.TrimSpace(s.cfg.PruneSchedule); spec != "" && s.store != nil {
		_, err := c.AddFunc(spec, func() { s.runPrune(ctx) })
		if err != nil {
			s.log.Warn("prune schedule rejected", logx.String("spec", spec), logx.Err(err))
		} else {
			registered++
		}
	}

	if registered == 0 {
		return
	}
	s.c = c
	c.Start()
	s.log.Info("maintenance started", logx.Int("schedules", registered))
}

func (s *Service) stopLocked() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("maintenance stopped")
}

func (s *Service) runFlush(ctx context.Context) {
	fctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.flusher.Flush(fctx); err != nil {
		s.log.Warn("scheduled flush failed", logx.Err(err), logx.Duration("dur", time.Since(start)))
		return
	}
	s.log.Info("scheduled flush done", logx.Duration("dur", time.Since(start)))
}

func (s *Service) runPrune(ctx context.Context) {
	maxAge := s.cfg.PruneMaxAge
	if maxAge <= 0 {
		maxAge = defaultPruneMaxAge
	}
	pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := s.store.PruneDeliveries(pctx, time.Now().Add(-maxAge))
	if err != nil {
		s.log.Warn("journal prune failed", logx.Err(err))
		return
	}
	if removed > 0 {
		s.log.Info("journal pruned", logx.Int("removed", removed))
	}
}
