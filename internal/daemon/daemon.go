package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/voicescribe/internal/bus"
	"github.com/leonardotrapani/voicescribe/internal/config"
	"github.com/leonardotrapani/voicescribe/internal/metrics"
	"github.com/leonardotrapani/voicescribe/internal/notify"
	"github.com/leonardotrapani/voicescribe/internal/pipeline"
	"github.com/leonardotrapani/voicescribe/internal/playback"
	"github.com/leonardotrapani/voicescribe/internal/recording"
	"github.com/leonardotrapani/voicescribe/internal/transcriber"
)

// Builder assembles a pipeline for one configuration. All pipelines share the
// daemon's metrics.
type Builder func(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*pipeline.Pipeline, error)

// BuildPipeline wires pw-record capture, the configured transcription
// backend, the playback store and notifications.
func BuildPipeline(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	rc := cfg.ToRecordingConfig()
	rec := recording.NewRecorder(rc, recording.NewPipeWireSource(rc))

	tr, err := transcriber.New(cfg.ToTranscriberConfig())
	if err != nil {
		return nil, fmt.Errorf("transcriber: %w", err)
	}

	var store *playback.Store
	dir, err := cfg.PlaybackDir()
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	if dir != "" {
		store = playback.NewStore(dir)
	}

	return pipeline.New(ctx, pipeline.Deps{
		Recorder:    rec,
		Transcriber: tr,
		Playback:    store,
		Notifier:    notify.New(cfg.NotificationType()),
		Metrics:     m,
	})
}

type Daemon struct {
	configMgr *config.Manager
	build     Builder
	metrics   *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
	pending  *config.Config // applied once the pipeline is idle
}

func New(configMgr *config.Manager, build Builder) (*Daemon, error) {
	if build == nil {
		build = BuildPipeline
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		configMgr: configMgr,
		build:     build,
		metrics:   metrics.New(),
		ctx:       ctx,
		cancel:    cancel,
	}

	p, err := build(ctx, configMgr.GetConfig(), d.metrics)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	d.pipeline = p
	return d, nil
}

func (d *Daemon) current() *pipeline.Pipeline {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pipeline
}

func (d *Daemon) Status() pipeline.Status {
	return d.current().Status()
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	d.configMgr.OnReload(d.applyConfig)
	if err := d.configMgr.StartWatching(d.ctx); err != nil {
		log.Printf("Daemon: config hot reload unavailable: %v", err)
	}
	defer d.configMgr.Stop()

	if listen := d.configMgr.GetConfig().Metrics.Listen; listen != "" {
		d.serveMetrics(listen)
	}

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("Shutdown requested")
				d.shutdown()
				return nil
			}
			log.Printf("Accept error: %v", err)
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.current().Close(ctx)
}

func (d *Daemon) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Daemon: serving metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Daemon: metrics server error: %v", err)
		}
	}()
	go func() {
		<-d.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error=%q\n", err.Error())
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		status, err := d.toggle()
		switch {
		case errors.Is(err, recording.ErrPermissionDenied):
			fmt.Fprintf(c, "ERR permission=denied status=%s\n", status)
		case err != nil:
			fmt.Fprintf(c, "ERR error=%q status=%s\n", err.Error(), status)
		default:
			fmt.Fprintf(c, "STATUS status=%s\n", status)
		}
	case bus.CmdStatus:
		fmt.Fprint(c, d.statusLine())
	case bus.CmdTranscription:
		fmt.Fprintf(c, "TRANSCRIPTION text=%q\n", d.current().Transcription())
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("Unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) statusLine() string {
	p := d.current()
	line := fmt.Sprintf("STATUS status=%s permission=%s transcription=%q clip=%q",
		p.Status(), p.Permission(), p.Transcription(), p.PlaybackPath())
	if err := p.LastError(); err != nil {
		line += fmt.Sprintf(" error=%q", err.Error())
	}
	return line + "\n"
}

// toggle holds the write lock so a reload cannot swap the pipeline between
// the status check and the switch.
func (d *Daemon) toggle() (pipeline.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil && d.pipeline.Status() == pipeline.Idle {
		d.rebuildLocked(d.pending)
	}
	return d.pipeline.Toggle(d.ctx)
}

// applyConfig swaps in a pipeline for cfg right away when idle, otherwise on
// the next toggle that finds the pipeline idle.
func (d *Daemon) applyConfig(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pipeline.Status() != pipeline.Idle {
		log.Printf("Daemon: pipeline busy, deferring config reload")
		d.pending = cfg
		return
	}
	d.rebuildLocked(cfg)
}

func (d *Daemon) rebuildLocked(cfg *config.Config) {
	d.pending = nil
	p, err := d.build(d.ctx, cfg, d.metrics)
	if err != nil {
		log.Printf("Daemon: keeping previous pipeline, rebuild failed: %v", err)
		return
	}
	p.Inherit(d.pipeline)
	d.pipeline = p
	log.Printf("Daemon: pipeline rebuilt from new configuration")
}
