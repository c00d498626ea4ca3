package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sceneio/pkg/config"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli"
)

// watchDelay batches the bursts of events editors emit for a single save
const watchDelay = 200 * time.Millisecond

// inputExtensions are the files whose changes trigger a conversion
var inputExtensions = map[string]bool{
	".pbrt": true,
	".yaml": true,
	".yml":  true,
	".ply":  true,
}

// WatchScene converts a scene once and again whenever a scene or mesh file
// in its directory changes, until interrupted.
func WatchScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() != 2 {
		return errors.New("watch expects an input and an output scene file")
	}

	out, err := outputPath(ctx.Args().Get(1), cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return watch(runCtx, ctx.Args().First(), out, cfg, nil)
}

// watch runs conversions until ctx is done. converted, when set, receives
// the result of every conversion.
func watch(ctx context.Context, in, out string, cfg config.Config, converted chan<- error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(in)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(in), err)
	}
	outAbs, _ := filepath.Abs(out)

	run := func() {
		err := convert(in, out, cfg)
		if err != nil {
			logger.Errorf("%v", err)
		}
		if converted != nil {
			converted <- err
		}
	}
	run()

	timer := time.NewTimer(watchDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, outAbs) {
				continue
			}
			logger.Debugf("%s: %s", event.Op, event.Name)
			timer.Reset(watchDelay)
		case <-timer.C:
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warningf("watch error: %v", err)
		}
	}
}

func relevant(event fsnotify.Event, outAbs string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if abs, err := filepath.Abs(event.Name); err == nil && abs == outAbs {
		return false
	}
	return inputExtensions[strings.ToLower(filepath.Ext(event.Name))]
}
