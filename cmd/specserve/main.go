// ABOUTME: CLI entrypoint that serves a directory as a content store, gated on its latest good build.
// ABOUTME: Layers config as defaults < file < SPECSERVE_* env < flags, and shuts down on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/2389-research/specserve/config"
	"github.com/2389-research/specserve/content"
	"github.com/2389-research/specserve/web"
)

var version = "dev"

// cliFlags holds values parsed from the command line. Only flags the user
// actually set override the layered config.
type cliFlags struct {
	configFile  string
	addr        string
	entry       string
	markdown    bool
	noWatch     bool
	quiet       bool
	showVersion bool
	dir         string
	set         map[string]bool
}

func main() {
	loadDotEnv(".env")

	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if flags.showVersion {
		fmt.Printf("specserve %s\n", version)
		os.Exit(0)
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg))
}

// parseFlags parses args into cliFlags. Usage goes to out.
func parseFlags(args []string, out io.Writer) (cliFlags, error) {
	var f cliFlags

	fs := flag.NewFlagSet("specserve", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.configFile, "config", "", "YAML or TOML config file")
	fs.StringVar(&f.addr, "addr", "", "Listen address")
	fs.StringVar(&f.entry, "entry", "", "File served at /")
	fs.BoolVar(&f.markdown, "markdown", false, "Render *.md files to HTML")
	fs.BoolVar(&f.noWatch, "no-watch", false, "Load the directory once without polling")
	fs.BoolVar(&f.quiet, "quiet", false, "Disable per-request logging")
	fs.BoolVar(&f.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(out, version)
	}

	if err := fs.Parse(args); err != nil {
		return f, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	if fs.NArg() > 0 {
		f.dir = fs.Arg(0)
	}
	return f, nil
}

// buildConfig layers defaults, the config file, the environment, and flags.
func buildConfig(f cliFlags) (config.Config, error) {
	cfg := config.Default()

	if f.configFile != "" {
		if err := config.LoadFile(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if f.set["addr"] {
		cfg.Addr = f.addr
	}
	if f.set["entry"] {
		cfg.Entry = f.entry
	}
	if f.set["markdown"] {
		cfg.Markdown = f.markdown
	}
	if f.set["no-watch"] {
		cfg.Watch = !f.noWatch
	}
	if f.set["quiet"] {
		cfg.RequestLogging = !f.quiet
	}
	if f.dir != "" {
		cfg.Dir = f.dir
	}

	return cfg, cfg.Validate()
}

// run wires the store, watcher, and server together and serves until ctx is done.
// Returns an exit code: 0 for success, 1 for failure.
func run(ctx context.Context, cfg config.Config) int {
	store := content.NewMapStore(nil)
	watcher := content.NewWatcher(cfg.Dir, store, content.WatcherConfig{
		Load: content.LoadOptions{
			Ignore:   cfg.Ignore,
			Markdown: cfg.Markdown,
		},
		PollInterval: cfg.PollInterval.Std(),
		Debounce:     cfg.Debounce.Std(),
		RequireEntry: cfg.Entry,
	})

	if cfg.Watch {
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("watcher stopped err=%v", err)
			}
		}()
	} else if err := watcher.Rebuild(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	srv, err := web.NewServer(store,
		web.WithWhenReady(watcher.Current),
		web.WithEntry(cfg.Entry),
		web.WithRequestLogging(cfg.RequestLogging),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer srv.Close()

	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
