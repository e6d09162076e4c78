// Command studio is an interactive terminal for one local FairShare session.
// It plays the timeline on the wall clock and shows attribution overlays as
// the playhead crosses licensed clips.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/clock"
	"github.com/stwalsh4118/fairshare/internal/config"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/studio"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a config file (defaults to the search path)")
	catalogPath := flag.String("catalog", "", "catalog file to open (overrides catalog.path)")
	width := flag.Int("width", defaultBarWidth, "timeline bar width in characters")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}

	logger.InitWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Pretty)

	opts, err := studio.OptionsFromConfig(cfg.Studio)
	if err != nil {
		return err
	}
	cat := catalog.Demo()
	if cfg.Catalog.Path != "" {
		doc, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		if cat, err = catalog.New(doc.Clips); err != nil {
			return err
		}
		if doc.TotalDuration > 0 {
			opts.TotalDuration = doc.TotalDuration
		}
	}

	notices := &noticeLog{}
	session := studio.NewSession(uuid.New(), clock.NewRealScheduler(), cat, opts, notices)
	defer session.Close()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	sh := newShell(session, notices, nil, *width)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fairshare> ",
		HistoryFile:     filepath.Join(homeDir, ".fairshare_history"),
		AutoComplete:    sh.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	sh.out = &lockedWriter{w: rl.Stdout()}

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path, func(doc *catalog.Document) {
			if err := session.Import(doc); err != nil {
				sh.fail(err)
				return
			}
			fmt.Fprintf(sh.out, "Reloaded %s\n", cfg.Catalog.Path)
		}, sh.fail)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
	}

	fmt.Fprintf(sh.out, "FairShare studio: %d clips over %s. Type 'help' for commands.\n",
		cat.Len(), session.Frame().Timeline.Clock)
	sh.showStatus()

	for {
		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(input) == 0 {
					break
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("error reading input: %w", err)
		}

		if !sh.handleCommand(strings.TrimSpace(input)) {
			break
		}
	}

	sh.setWatch(false)
	return nil
}

// lockedWriter serializes writes from the prompt and the watch goroutine
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
