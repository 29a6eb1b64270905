// Package watcher provides file system monitoring for the assistant CLI
// configuration file, reloading settings such as the backend base URL and
// debug level while a long-running command is active.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/thaithanhnhat/assistant-cli/internal/config"
)

// Watcher monitors the configuration file for changes.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher
	lastConfigHash string
}

// NewWatcher creates a new file watcher for the given config path. The
// callback runs on every effective (content-changing) modification.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	fsWatcher, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}

	w := &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		watcher:        fsWatcher,
	}
	w.lastConfigHash = w.hashConfig()
	return w, nil
}

// Start begins watching the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	if errAdd := w.watcher.Add(w.configPath); errAdd != nil {
		log.Errorf("failed to watch config file %s: %v", w.configPath, errAdd)
		return errAdd
	}
	log.Debugf("watching config file: %s", w.configPath)

	go w.processEvents(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors often replace the file; give the write a moment to
			// settle before reading.
			time.Sleep(100 * time.Millisecond)
			w.reload()
			// Re-add after rename-style saves.
			if strings.EqualFold(event.Name, w.configPath) {
				_ = w.watcher.Add(w.configPath)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	hash := w.hashConfig()
	if hash == "" || hash == w.lastConfigHash {
		return
	}
	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Errorf("failed to reload config: %v", err)
		return
	}
	w.lastConfigHash = hash
	log.Infof("config reloaded from %s", w.configPath)
	if w.reloadCallback != nil {
		w.reloadCallback(cfg)
	}
}

func (w *Watcher) hashConfig() string {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
