// Package main is the ripsearch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/CloudShih/ripsearch/internal/cli"
	"github.com/CloudShih/ripsearch/internal/command"
	"github.com/CloudShih/ripsearch/internal/config"
	"github.com/CloudShih/ripsearch/internal/export"
	"github.com/CloudShih/ripsearch/internal/history"
	"github.com/CloudShih/ripsearch/internal/models"
	"github.com/CloudShih/ripsearch/internal/server"
	"github.com/CloudShih/ripsearch/internal/watcher"
	"github.com/CloudShih/ripsearch/internal/worker"
	"github.com/CloudShih/ripsearch/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ripsearch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	switch cmd {
	case "search":
		runSearch(false)
	case "watch":
		runSearch(true)
	case "server":
		runServer()
	case "history":
		runHistory()
	case "probe":
		runProbe()
	case "version", "--version", "-v":
		fmt.Printf("ripsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

// searchFlags holds parsed search/watch options.
type searchFlags struct {
	configPath string
	output     string
	exportPath string
	progress   bool
	debug      bool
	params     *models.SearchParameters
}

// buildSearchPattern joins all positional args with spaces so multi-word
// patterns work the same with or without shell quoting.
func buildSearchPattern(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// pattern to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSearchFlags(name string, args []string) *searchFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	path := fs.String("path", ".", "directory or file to search")
	caseSensitive := fs.Bool("case-sensitive", false, "match case exactly")
	wholeWords := fs.Bool("word", false, "match whole words only")
	regexMode := fs.Bool("regex", false, "treat the pattern as a regular expression")
	multiline := fs.Bool("multiline", false, "allow matches to span lines")
	contextLines := fs.Int("context", 0, "context lines around each match (0-20)")
	maxResults := fs.Int("max-results", 0, "per-file match cap (0 = config default)")
	fileTypes := fs.String("type", "", "comma-separated file types or extensions (go, .rs, *.md)")
	excludes := fs.String("exclude", "", "comma-separated glob patterns to skip")
	maxDepth := fs.Int("max-depth", 0, "directory recursion limit (0 = unlimited)")
	follow := fs.Bool("follow", false, "follow symbolic links")
	hidden := fs.Bool("hidden", false, "search hidden files and directories")
	output := fs.String("output", "text", "output format: text or json")
	exportPath := fs.String("export", "", "write results to this file after the search (format from extension)")
	progress := fs.Bool("progress", false, "report progress on stderr")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ripsearch %s [flags] <pattern>\n\n", name)
		fs.PrintDefaults()
	}
	_ = fs.Parse(searchArgsReorder(args))

	pattern := buildSearchPattern(fs.Args())
	if pattern == "" {
		fs.Usage()
		os.Exit(1)
	}
	return &searchFlags{
		configPath: *configPath,
		output:     *output,
		exportPath: *exportPath,
		progress:   *progress,
		debug:      *debug,
		params: &models.SearchParameters{
			Pattern:         pattern,
			SearchPath:      *path,
			CaseSensitive:   *caseSensitive,
			WholeWords:      *wholeWords,
			RegexMode:       *regexMode,
			Multiline:       *multiline,
			ContextLines:    *contextLines,
			MaxResults:      *maxResults,
			FileTypes:       splitList(*fileTypes),
			ExcludePatterns: splitList(*excludes),
			MaxDepth:        *maxDepth,
			FollowSymlinks:  *follow,
			SearchHidden:    *hidden,
		},
	}
}

func outputFormat(name string) cli.SearchOutputFormat {
	switch name {
	case "json":
		return cli.OutputJSON
	case "text":
		return cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", name)
		os.Exit(1)
		return cli.OutputText
	}
}

func workerConfig(cfg *config.Config, onProgress func(files, matches int) bool) worker.Config {
	format := command.FormatJSON
	if !cfg.Search.JSONOutputOrDefault() {
		format = command.FormatText
	}
	return worker.Config{
		Executable:       cfg.Binary.Path,
		Format:           format,
		GracePeriod:      cfg.Search.GracePeriod(),
		ProgressInterval: cfg.Search.ProgressInterval(),
		BufferItems:      cfg.Search.BufferItems,
		BufferBytes:      cfg.Search.BufferBytes,
		BaseTimeout:      cfg.Search.BaseTimeout(),
		MaxTimeout:       cfg.Search.MaxTimeout(),
		OnProgress:       onProgress,
	}
}

func runSearch(watch bool) {
	name := "search"
	if watch {
		name = "watch"
	}
	opts := parseSearchFlags(name, os.Args[2:])
	format := outputFormat(opts.output)
	if watch && format == cli.OutputJSON {
		fmt.Println("watch supports text output only")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if opts.params.MaxResults == 0 {
		opts.params.MaxResults = cfg.Search.DefaultMaxResults
	}
	logger, err := utils.NewLogger(cfg.Debug || opts.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var store *history.Store
	if cfg.History.EnabledOrDefault() && cfg.History.DatabasePath != "" {
		store, err = history.NewStore(cfg.History.DatabasePath)
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	if !watch {
		summary := runOneSearch(cfg, logger, store, opts, format)
		if summary != nil && summary.Status == models.StatusError {
			os.Exit(1)
		}
		return
	}

	runOneSearch(cfg, logger, store, opts, format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)
	w := watcher.New(opts.params.SearchPath, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, watcher.WithLogger(logger), watcher.WithDebounce(cfg.Watch.Debounce()))
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	defer w.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	fmt.Fprintf(os.Stderr, "Watching %s for changes; Ctrl-C to stop.\n", opts.params.SearchPath)
	for {
		select {
		case <-changes:
			runOneSearch(cfg, logger, store, opts, format)
		case <-sigChan:
			return
		}
	}
}

// runOneSearch runs a single search to completion, streaming output as events
// arrive, and returns the terminal summary (nil if none was produced).
func runOneSearch(cfg *config.Config, logger *zap.Logger, store *history.Store, opts *searchFlags, format cli.SearchOutputFormat) *models.SearchSummary {
	var onProgress func(files, matches int) bool
	if opts.progress {
		onProgress = func(files, matches int) bool {
			fmt.Fprintf(os.Stderr, "\r%d files, %d matches", files, matches)
			return true
		}
	}
	wk := worker.New(workerConfig(cfg, onProgress), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			wk.Cancel()
		case <-ctx.Done():
		}
	}()

	// Start failures surface as the terminal Error event on the channel.
	_ = wk.Start(ctx, opts.params)

	out := cli.NewWriter(os.Stdout, format)
	collection := models.NewSearchResultCollection()
	var summary *models.SearchSummary
	for ev := range wk.Events() {
		out.WriteEvent(ev)
		if ev.Kind == worker.EventResult {
			collection.AddFileResult(ev.Result)
		}
		if ev.Terminal() {
			summary = ev.Summary
		}
	}
	if opts.progress {
		fmt.Fprintln(os.Stderr)
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
	}
	if summary == nil {
		return nil
	}
	collection.Summary = summary

	if store != nil {
		hctx, hcancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := store.RecordSummary(hctx, wk.ID(), opts.params.SearchPath, summary); err != nil {
			logger.Warn("history record failed", zap.Error(err))
		}
		hcancel()
	}
	if opts.exportPath != "" {
		ok, msg := export.Export(collection, opts.exportPath, export.FormatForPath(opts.exportPath))
		fmt.Fprintln(os.Stderr, msg)
		if !ok {
			os.Exit(1)
		}
	}
	return summary
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	var store *history.Store
	if cfg.History.EnabledOrDefault() && cfg.History.DatabasePath != "" {
		store, err = history.NewStore(cfg.History.DatabasePath)
		if err != nil {
			logger.Fatal("Failed to open history store", zap.Error(err))
		}
		defer store.Close()
	}

	srv := server.NewServer(cfg, store, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of entries to show")
	output := fs.String("output", "text", "output format: text or json")
	clear := fs.Bool("clear", false, "delete all recorded searches")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.History.DatabasePath == "" {
		fmt.Println("History is not configured.")
		return
	}
	store, err := history.NewStore(cfg.History.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if *clear {
		if err := store.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared.")
		return
	}
	entries, err := store.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHistory(os.Stdout, entries, outputFormat(*output)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runProbe() {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	binary := command.DefaultExecutable
	if cfg, _, err := loadConfig(*configPath); err == nil && cfg.Binary.Path != "" {
		binary = cfg.Binary.Path
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, ver := command.Probe(ctx, binary)
	if !ok {
		fmt.Printf("%s: not available\n", binary)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", binary, ver)
}

func printUsage() {
	fmt.Println(`ripsearch - Streaming code search built on ripgrep

Usage:
  ripsearch search [flags] <pattern>   Search files and stream results
  ripsearch watch [flags] <pattern>    Search, then re-run on file changes
  ripsearch server [flags]             Start the HTTP server
  ripsearch history [flags]            Show recent searches
  ripsearch probe [flags]              Check the ripgrep binary
  ripsearch version                    Show version
  ripsearch help                       Show this help

Search Flags:
  --config string       Config file path (default: /usr/local/etc/ripsearch/config.yaml)
  --path string         Directory or file to search (default: current directory)
  --case-sensitive      Match case exactly
  --word                Match whole words only
  --regex               Treat the pattern as a regular expression
  --multiline           Allow matches to span lines
  --context int         Context lines around each match (0-20)
  --max-results int     Per-file match cap (0 = config default)
  --type string         Comma-separated file types or extensions (go, .rs, *.md)
  --exclude string      Comma-separated glob patterns to skip
  --max-depth int       Directory recursion limit (0 = unlimited)
  --follow              Follow symbolic links
  --hidden              Search hidden files and directories
  --output string       Output format: text or json (default: text)
  --export string       Write results to this file (format from extension: .json/.csv/.txt/.xlsx)
  --progress            Report progress on stderr

Examples:
  ripsearch search "func main"
  ripsearch search --type go --context 2 TODO
  ripsearch search --regex 'fn\s+\w+' --path src
  ripsearch search --export results.csv "deprecated"
  ripsearch watch --type md "FIXME"
  ripsearch server
  ripsearch history --limit 10`)
}
