package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-hiz/engine/baker"
	"github.com/Carmen-Shannon/oxy-hiz/engine/config"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// watchTargets lists the files whose changes trigger a re-bake.
type watchTargets struct {
	scene  string
	config string
}

func newWatchTargets(cfg config.Config, configPath string) watchTargets {
	t := watchTargets{scene: absClean(cfg.Scene)}
	if configPath != "" {
		if expanded, err := homedir.Expand(configPath); err == nil {
			configPath = expanded
		}
		t.config = absClean(configPath)
	}
	return t
}

// dirs returns the distinct directories to watch. Directories are watched rather than the files
// so that editors that replace files on save are still seen.
func (t watchTargets) dirs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range []string{t.scene, t.config} {
		if p == "" {
			continue
		}
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// match reports whether an event touches a target, and whether that target is the config.
func (t watchTargets) match(ev fsnotify.Event) (hit, isConfig bool) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false, false
	}
	name := absClean(ev.Name)
	if t.config != "" && name == t.config {
		return true, true
	}
	return name == t.scene, false
}

func absClean(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// runWatch bakes once, then again after every debounced change to the scene or config file,
// until ctx is cancelled. Failed bakes are logged and the watch continues.
func runWatch(ctx context.Context, cmd *cobra.Command, b baker.Baker, flags *bakeFlags, args []string, debounce time.Duration) error {
	cfg, err := flags.resolve(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	targets := newWatchTargets(cfg, flags.configPath)
	watched := make(map[string]bool)
	addDirs := func() error {
		for _, d := range targets.dirs() {
			if watched[d] {
				continue
			}
			if err := w.Add(d); err != nil {
				return fmt.Errorf("failed to watch %s: %w", d, err)
			}
			watched[d] = true
		}
		return nil
	}
	if err := addDirs(); err != nil {
		return err
	}

	bakeOnce := func() {
		report, err := b.Bake(ctx, cfg)
		if err != nil {
			log.Printf("[Watch] bake failed: %v", err)
			return
		}
		printReport(cmd.OutOrStdout(), report)
	}

	bakeOnce()
	log.Printf("[Watch] watching %s", targets.scene)

	var timer *time.Timer
	var fire <-chan time.Time
	reloadConfig := false
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			hit, isConfig := targets.match(ev)
			if !hit {
				continue
			}
			reloadConfig = reloadConfig || isConfig
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Watch] watcher error: %v", err)

		case <-fire:
			fire = nil
			b.Loader().Evict(cfg.Scene)
			if reloadConfig {
				reloadConfig = false
				next, err := flags.resolve(cmd, args)
				if err != nil {
					log.Printf("[Watch] config reload failed, keeping previous config: %v", err)
				} else {
					cfg = next
					targets = newWatchTargets(cfg, flags.configPath)
					if err := addDirs(); err != nil {
						log.Printf("[Watch] %v", err)
					}
				}
			}
			bakeOnce()
		}
	}
}
