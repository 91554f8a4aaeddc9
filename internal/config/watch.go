package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
)

// WatchRules monitors the rules file for changes and calls onChange with
// the newly loaded RuleSet each time the file is written. It runs until
// ctx is cancelled.
//
// If a reload fails (e.g. invalid YAML), the error is logged and the
// previous rule set stays active; onChange is not called.
func WatchRules(ctx context.Context, path string, onChange func(*RuleSet)) error {
	log := logger.WithComponent("rules_watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log.Info().Str("path", path).Msg("watching rules file for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often write via rename (atomic save), so also
			// catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			rules, err := LoadRules(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("rules reload failed, keeping previous rules")
				metrics.RulesReloads.WithLabelValues("failed").Inc()
				continue
			}

			log.Info().Str("path", path).Msg("rules reloaded")
			metrics.RulesReloads.WithLabelValues("success").Inc()
			onChange(rules)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("rules watcher error")
		}
	}
}
