// Command banchod runs the lobby's session engine: it loads configuration,
// wires the in-memory store and badger-backed cache collaborators, starts
// the Prometheus metrics endpoint, and serves connections until signaled to
// stop (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chordwave/lobby/internal/cache"
	"github.com/chordwave/lobby/internal/config"
	"github.com/chordwave/lobby/internal/logging"
	"github.com/chordwave/lobby/internal/metrics"
	"github.com/chordwave/lobby/internal/session"
	"github.com/chordwave/lobby/internal/store/memstore"
)

func main() {
	configPath := flag.String("config", "", "path to the lobby's YAML config file")
	address := flag.Int("address", 0, "override the configured listen port (0 = use config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "banchod: load config: %v\n", err)
		os.Exit(1)
	}
	if *address != 0 {
		cfg.Ports = []int{*address}
	}

	if err := logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		fmt.Fprintf(os.Stderr, "banchod: init logging: %v\n", err)
		os.Exit(1)
	}

	watcher, live, err := config.Watch(*configPath, cfg)
	if err != nil {
		logging.Errorf("banchod: config watcher: %v (continuing with static config)", err)
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	kv, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		logging.Errorf("banchod: open cache: %v", err)
		os.Exit(1)
	}
	defer kv.Close()

	mem := memstore.New()
	collab := memstore.NewCollaborators(mem)

	m := metrics.New()

	engine := session.New(cfg, session.Collaborators{
		Users:         collab.Users,
		Relationships: collab.Relationships,
		Beatmaps:      collab.Beatmaps,
		Scores:        collab.Scores,
		Matches:       collab.Matches,
		Events:        collab.Events,
		Messages:      collab.Messages,
		Clients:       collab.Clients,
		Infringements: collab.Infringements,
		Logins:        collab.Logins,
		Leaderboards:  kv,
		Status:        cache.StatusCache{Cache: kv},
		Usercount:     cache.UsercountCache{Cache: kv},
	}, m)
	if live != nil {
		engine.AttachLive(live)
	}

	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			logging.Infof("banchod: metrics listening on %s", addr)
			if err := http.ListenAndServe(addr, m.Handler()); err != nil {
				logging.Errorf("banchod: metrics server: %v", err)
			}
		}()
	}

	if err := engine.Serve(); err != nil {
		logging.Errorf("banchod: serve: %v", err)
		os.Exit(1)
	}
	logging.Infof("banchod: listening on ports %v", cfg.Ports)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Infof("banchod: shutting down (signal: %v)", sig)
	case <-engine.StopChan():
		logging.Infof("banchod: shutting down (internal)")
	}

	engine.Stop()
	logging.Infof("banchod: stopped")
}
