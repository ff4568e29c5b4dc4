// Package core wires hookrelay's services together: config, logging,
// journal, webhook client, intake listener and maintenance schedules.
package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/discord"
	"hookrelay/internal/intake"
	"hookrelay/internal/journal"
	"hookrelay/internal/maintenance"
	"hookrelay/pkg/logx"
)

// urlEnvVar overrides webhook.url so the secret can stay out of the
// config file.
const urlEnvVar = "HOOKRELAY_WEBHOOK_URL"

type App struct {
	cfgPath string

	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	store  journal.Store
	client *discord.Client
	intake *intake.Server
	maint  *maintenance.Service

	mu      sync.Mutex
	watchWG sync.WaitGroup
	cancel  context.CancelFunc
	subCh   chan *config.Config
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	store, err := openJournal(cfg, log)
	if err != nil {
		return nil, err
	}

	client, err := buildClient(cfg, log, store)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	app := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		logs:    logSvc,
		log:     log.With(logx.String("comp", "app")),
		store:   store,
		client:  client,
		intake:  intake.NewServer(client, log),
	}

	maintCfg, err := maintenanceConfig(cfg)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	app.maint = maintenance.New(maintCfg, client, store, log)
	if err := app.maint.Validate(maintCfg); err != nil {
		closeStore(store)
		return nil, fmt.Errorf("maintenance: %w", err)
	}

	cfgm.SetValidator(func(ctx context.Context, c *config.Config) error {
		mc, err := maintenanceConfig(c)
		if err != nil {
			return err
		}
		return app.maint.Validate(mc)
	})

	return app, nil
}

// Client exposes the webhook client for embedding callers.
func (a *App) Client() *discord.Client { return a.client }

func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	cfg := a.cfgm.Get()
	a.intake.Apply(runCtx, intakeConfig(cfg))
	a.maint.Start(runCtx)

	subCh := a.cfgm.Subscribe(1)
	a.subCh = subCh
	a.watchWG.Add(2)
	go func() {
		defer a.watchWG.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()
	go func() {
		defer a.watchWG.Done()
		a.reloadLoop(runCtx, subCh, cfg)
	}()

	notifyReady(a.log)
	a.log.Info("hookrelay started", logx.String("config", a.cfgPath))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	subCh := a.subCh
	a.subCh = nil
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}

	notifyStopping(a.log)
	cancel()
	a.watchWG.Wait()
	if subCh != nil {
		a.cfgm.Unsubscribe(subCh)
	}

	a.intake.Stop(ctx)
	a.maint.Stop()

	// Drain whatever is still queued before shutdown, bounded by ctx.
	fctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var fcancel context.CancelFunc
		fctx, fcancel = context.WithTimeout(ctx, 30*time.Second)
		defer fcancel()
	}
	if err := a.client.Flush(fctx); err != nil {
		a.log.Warn("final flush incomplete", logx.Err(err), logx.Int("queued", a.client.Queued()))
	}
	a.client.Stop()

	closeStore(a.store)
	a.log.Info("hookrelay stopped")
	_ = a.logs.Close()
	return nil
}

// reloadLoop applies config changes published by the watcher. Logging,
// intake and maintenance apply live; webhook changes need a restart (the
// queue and its correlation state belong to the running client).
func (a *App) reloadLoop(ctx context.Context, subCh <-chan *config.Config, last *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-subCh:
			if !ok || cfg == nil {
				return
			}
			changed, attrs := config.SummarizeChange(last, cfg)
			if len(changed) == 0 {
				continue
			}
			a.log.Info("config changed", append(attrs, logx.String("sections", strings.Join(changed, ",")))...)

			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.intake.Apply(ctx, intakeConfig(cfg))
			if mc, err := maintenanceConfig(cfg); err == nil {
				a.maint.Apply(ctx, mc)
			}
			for _, section := range changed {
				if section == "webhook" || section == "journal" {
					a.log.Warn("section requires restart to take effect", logx.String("section", section))
				}
			}
			last = cfg
		}
	}
}

func buildClient(cfg *config.Config, log logx.Logger, store journal.Store) (*discord.Client, error) {
	url := strings.TrimSpace(cfg.Webhook.URL)
	if env := strings.TrimSpace(os.Getenv(urlEnvVar)); env != "" {
		url = env
	}

	batchDelay, err := config.ParseDurationField("webhook.batch_delay", cfg.Webhook.BatchDelay)
	if err != nil {
		return nil, err
	}
	timeout, err := config.ParseDurationField("webhook.timeout", cfg.Webhook.Timeout)
	if err != nil {
		return nil, err
	}

	var rec discord.Recorder
	if store != nil {
		rec = &journalRecorder{store: store, log: log}
	}

	return discord.New(discord.Config{
		URL:            url,
		Label:          cfg.Webhook.Label,
		Environment:    cfg.Webhook.Environment,
		Disabled:       cfg.Webhook.Disabled,
		Suffix:         cfg.Webhook.Suffix,
		BatchDelay:     batchDelay,
		SendsPerMinute: cfg.Webhook.SendsPerMinute,
		Timeout:        timeout,
		Logger:         log,
		Recorder:       rec,
	})
}

func openJournal(cfg *config.Config, log logx.Logger) (journal.Store, error) {
	if cfg.Journal == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("journal.busy_timeout", cfg.Journal.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := journal.Open(journal.Config{
		Driver:      cfg.Journal.Driver,
		Path:        cfg.Journal.Path,
		BusyTimeout: busy,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}

func intakeConfig(cfg *config.Config) intake.Config {
	read, _ := config.ParseDurationField("intake.read_timeout", cfg.Intake.ReadTimeout)
	write, _ := config.ParseDurationField("intake.write_timeout", cfg.Intake.WriteTimeout)
	idle, _ := config.ParseDurationField("intake.idle_timeout", cfg.Intake.IdleTimeout)
	return intake.Config{
		Enabled:      cfg.Intake.Enabled,
		Address:      cfg.Intake.Address,
		Token:        cfg.Intake.Token,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}
}

func maintenanceConfig(cfg *config.Config) (maintenance.Config, error) {
	maxAge, err := config.ParseDurationOrDefault("maintenance.prune_max_age", cfg.Maintenance.PruneMaxAge, 7*24*time.Hour)
	if err != nil {
		return maintenance.Config{}, err
	}
	return maintenance.Config{
		FlushSchedule: cfg.Maintenance.FlushSchedule,
		PruneSchedule: cfg.Maintenance.PruneSchedule,
		PruneMaxAge:   maxAge,
	}, nil
}

func closeStore(store journal.Store) {
	if store != nil {
		_ = store.Close()
	}
}

// journalRecorder adapts journal.Store to the client's Recorder hook.
type journalRecorder struct {
	store journal.Store
	log   logx.Logger
}

func (r *journalRecorder) Record(ctx context.Context, d discord.Delivery) {
	err := r.store.AppendDelivery(ctx, journal.Entry{
		At:     d.At,
		Status: d.Status,
		Embeds: d.Embeds,
		Chars:  d.Chars,
		Error:  d.Error,
	})
	if err != nil {
		r.log.Warn("journal append failed", logx.Err(err))
	}
}
