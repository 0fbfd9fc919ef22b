package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// runWatch runs the script, then again after every change, until interrupted.
func runWatch(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rerun := func() {
		if err := runScript(ctx, opts); err != nil && ctx.Err() == nil {
			opts.logger.Error("script failed", "script", opts.script, "error", err)
		}
	}
	rerun()

	err := watchFile(ctx, opts.script, opts.cfg.Watch.Debounce.Std(), func() {
		opts.logger.Info("script changed, re-running", "script", opts.script)
		rerun()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return exitError(exitUsage, err, "watching %s", opts.script)
	}
	return nil
}

// watchFile calls onChange on the caller's goroutine after path is written,
// once per burst of events no closer together than debounce. It watches the
// parent directory so editors that replace the file by rename are seen.
// It returns ctx.Err() when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			onChange()
		}
	}
}
