package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vidyasagar/pagenav/internal/app"
	"github.com/vidyasagar/pagenav/internal/logging"
	"github.com/vidyasagar/pagenav/internal/pages"
	"github.com/vidyasagar/pagenav/internal/storage"
	"github.com/vidyasagar/pagenav/internal/theme"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		root        string
		themeName   string
		configPath  string
		showVersion bool
	)

	flag.StringVar(&root, "root", "", "directory of pages to browse (default from config, else current directory)")
	flag.StringVar(&themeName, "theme", "", "color theme ("+strings.Join(theme.List(), ", ")+")")
	flag.StringVar(&configPath, "config", "", "config file (default "+defaultConfigPath()+")")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagenav - browse a directory of Markdown and HTML pages\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagenav [flags] [page]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pagenav                        # open index.md in the current directory\n")
		fmt.Fprintf(os.Stderr, "  pagenav -root docs guide/setup # open docs/guide/setup.md\n")
		fmt.Fprintf(os.Stderr, "  pagenav -theme nord            # use the nord theme\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("pagenav %s\n", version)
		os.Exit(0)
	}

	var start string
	if flag.NArg() > 0 {
		start = flag.Arg(0)
	}

	if err := run(configPath, root, themeName, start); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, root, themeName, start string) error {
	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// Flags override the config file.
	if themeName == "" {
		themeName = cfg.Theme
	}
	if root == "" {
		root = cfg.Root
	}
	if start == "" {
		start = cfg.Home
	}

	if !theme.Set(themeName) {
		return fmt.Errorf("unknown theme %q (available: %s)", themeName, strings.Join(theme.List(), ", "))
	}

	dataDir, err := storage.DataDir()
	if err != nil {
		return err
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(dataDir, "pagenav.log")
	}
	log, err := logging.New(logFile, cfg.LogLevel)
	if err != nil {
		return err
	}

	src, err := pages.NewSource(root, cfg.CacheSize, log)
	if err != nil {
		return err
	}

	// The visit log is best effort; browsing works without it.
	var db *storage.DB
	if cfg.RecordVisits {
		db, err = storage.OpenDB(dataDir)
		if err != nil {
			log.Warn("opening database, visit log disabled", zap.Error(err))
			db = nil
		}
	}

	log.Info("starting",
		zap.String("version", version),
		zap.String("root", src.Root()),
		zap.String("theme", themeName),
		zap.Bool("record_visits", db != nil))

	m := app.New(app.Options{
		Source:       src,
		DB:           db,
		RecordVisits: db != nil,
		Logger:       log,
		StartPage:    start,
		Home:         cfg.Home,
	})
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Browsing works without live reload, so a watcher failure is logged.
		if err := src.Watch(ctx, func(name string) {
			p.Send(app.PageChangedMsg{Name: name})
		}); err != nil {
			log.Warn("page watcher stopped", zap.Error(err))
		}
		return nil
	})

	final, runErr := p.Run()
	cancel()
	_ = g.Wait()

	if fm, ok := final.(app.Model); ok {
		m = fm
	}
	return multierror.Append(runErr, m.Close()).ErrorOrNil()
}

func defaultConfigPath() string {
	p, err := storage.ConfigPath()
	if err != nil {
		return "none"
	}
	return p
}
