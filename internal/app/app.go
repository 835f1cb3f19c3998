package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ecg-monitor/internal/alerting"
	"ecg-monitor/internal/config"
	"ecg-monitor/internal/display"
	"ecg-monitor/internal/scheduler"
	"ecg-monitor/internal/service"
	"ecg-monitor/internal/storage"
	"ecg-monitor/internal/transport"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) openTransport() (*transport.Port, error) {
	return transport.Open(transport.Options{
		Port:        a.Config.Serial.Port,
		Baud:        a.Config.Serial.Baud,
		ReadTimeout: a.Config.Serial.ReadTimeout,
	}, a.Logger)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; alert auditing disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	port, err := a.openTransport()
	if err != nil {
		return err
	}
	defer port.Close()

	var displaySrv *display.Server
	var publisher service.Publisher
	displayErr := make(chan error, 1)
	if a.Config.Display.Enabled {
		displaySrv = display.NewServer(a.Config.Display.ListenAddr, a.Logger)
		publisher = displaySrv
		go func() {
			err := displaySrv.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("display server terminated")
			}
			displayErr <- err
		}()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Monitor.TickInterval,
		StartupDelay: a.Config.Monitor.StartupDelay,
	}, a.Logger)

	notifier := a.newNotifier()

	var alertStore storage.AlertStore
	if store != nil {
		alertStore = store
	}

	monitor := service.New(a.Config, sched, port, publisher, notifier, alertStore, a.Logger)

	a.Logger.Info().Str("port", port.Name()).Msg("starting ecg monitor")
	err = monitor.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitor terminated with error")
		return err
	}

	if displaySrv != nil {
		cancel()
		<-displayErr
	}

	a.Logger.Info().Msg("ecg monitor stopped")
	return nil
}

// CaptureOptions hold parameters for capturing a live waveform to disk.
type CaptureOptions struct {
	Duration  time.Duration
	CSVPath   string
	PNGPath   string
	Filtered  bool
	MaxPoints int
}

// SimulateOptions configure the synthetic-signal run.
type SimulateOptions struct {
	RateBPM  float64
	Duration time.Duration
	Noise    float64
	LeadOff  bool
	Notify   bool
}

// AlertsOptions configure the alerts listing.
type AlertsOptions struct {
	Limit int
}
