package cmd

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/klytics/pipekit/internal/config"
)

// liveConfig holds the configuration the next pipeline runs with. The
// shell swaps it when the config file changes.
type liveConfig struct {
	mu  sync.RWMutex
	cfg *config.Config
}

func newLiveConfig(cfg *config.Config) *liveConfig {
	return &liveConfig{cfg: cfg}
}

func (l *liveConfig) get() *config.Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// update installs cfg unless it fails validation, and applies its log level.
// Plugins and the history file are read once at startup and do not reload.
func (l *liveConfig) update(cfg *config.Config, log *logrus.Logger) error {
	for _, issue := range config.Validate(cfg) {
		if issue.Severity == "error" {
			return fmt.Errorf("config %s: %s", issue.Key, issue.Message)
		}
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return nil
}
