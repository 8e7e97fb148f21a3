// Package daemon keeps the TV in sync with the content file: it watches the
// file for changes, refreshes on a fixed interval, and serves Prometheus
// metrics. Pushes are serialized through a single worker so two triggers can
// never upload concurrently.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/framecast/internal/config"
	"git.home.luguber.info/inful/framecast/internal/logfields"
	"git.home.luguber.info/inful/framecast/internal/metrics"
)

// Pusher runs one push cycle and returns the uploaded content identifier.
type Pusher interface {
	Run(ctx context.Context) (string, error)
}

// Daemon ties the watcher, the interval scheduler and the metrics server
// around a single push worker.
type Daemon struct {
	cfg       *config.Config
	pusher    Pusher
	recorder  metrics.Recorder
	registry  *prom.Registry
	scheduler gocron.Scheduler
	watcher   *ContentWatcher
	httpSrv   *http.Server

	triggerChan chan string
	stopOnce    sync.Once
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates a daemon. The content watcher is only armed when the
// configuration names a content file.
func New(cfg *config.Config, pusher Pusher) (*Daemon, error) {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := &Daemon{
		cfg:         cfg,
		pusher:      pusher,
		recorder:    metrics.NewPrometheusRecorder(registry),
		registry:    registry,
		triggerChan: make(chan string, 1),
		stopChan:    make(chan struct{}),
	}

	if cfg.ContentFile != "" {
		watcher, err := NewContentWatcher(cfg.ContentFile, func() {
			d.recorder.IncWatcherEvents()
			d.trigger("file_change")
		})
		if err != nil {
			return nil, err
		}
		d.watcher = watcher
	}

	return d, nil
}

// Start runs the daemon until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Starting daemon",
		"content_file", d.cfg.ContentFile,
		"refresh_interval", d.cfg.RefreshInterval,
		"metrics_addr", d.cfg.MetricsAddr)

	d.wg.Add(1)
	go d.pushLoop(ctx)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	if d.cfg.RefreshInterval > 0 {
		if err := d.startScheduler(); err != nil {
			return err
		}
	}

	if d.cfg.MetricsAddr != "" {
		d.startMetricsServer()
	}

	// Push once on startup so the TV reflects the current content.
	d.trigger("startup")

	<-ctx.Done()
	return nil
}

// Stop shuts the daemon down, waiting for an in-flight push to finish.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error
	d.stopOnce.Do(func() {
		slog.Info("Stopping daemon")
		close(d.stopChan)

		if d.watcher != nil {
			if err := d.watcher.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if d.scheduler != nil {
			if err := d.scheduler.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("shutdown scheduler: %w", err))
			}
		}
		if d.httpSrv != nil {
			if err := d.httpSrv.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			}
		}

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("push worker did not finish: %w", ctx.Err()))
		}
	})
	return errors.Join(errs...)
}

func (d *Daemon) startScheduler() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(d.cfg.RefreshInterval),
		gocron.NewTask(func() { d.trigger("interval") }),
		gocron.WithName("refresh-push"),
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh job: %w", err)
	}

	slog.Info("Starting refresh scheduler", "interval", d.cfg.RefreshInterval)
	s.Start()
	d.scheduler = s
	return nil
}

func (d *Daemon) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	d.httpSrv = &http.Server{
		Addr:              d.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Serving metrics", logfields.Addr(d.cfg.MetricsAddr))
		if err := d.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

// trigger requests a push. A trigger arriving while one is already pending
// is coalesced with it.
func (d *Daemon) trigger(reason string) {
	select {
	case d.triggerChan <- reason:
	default:
		slog.Debug("Push already pending, coalescing trigger", logfields.Reason(reason))
	}
}

// pushLoop is the single worker that executes pushes one at a time.
func (d *Daemon) pushLoop(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case reason := <-d.triggerChan:
			d.runPush(ctx, reason)
		}
	}
}

func (d *Daemon) runPush(ctx context.Context, reason string) {
	slog.Info("Push triggered", logfields.Reason(reason))
	start := time.Now()

	contentID, err := d.pusher.Run(ctx)
	d.recorder.ObservePushDuration(time.Since(start))

	switch {
	case err == nil:
		d.recorder.IncPushOutcome(metrics.OutcomeSuccess)
		d.recorder.SetLastPushTime(time.Now())
		slog.Info("Push succeeded", logfields.Reason(reason), logfields.ContentID(contentID), logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	case errors.Is(err, context.Canceled):
		d.recorder.IncPushOutcome(metrics.OutcomeCanceled)
		slog.Warn("Push canceled", logfields.Reason(reason))
	default:
		d.recorder.IncPushOutcome(metrics.OutcomeFailed)
		slog.Error("Push failed", logfields.Reason(reason), logfields.Error(err))
	}
}
