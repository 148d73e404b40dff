// Package main is the entry point for the gridstorm editor.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/gridstorm/internal/app"
	"github.com/dshills/gridstorm/internal/bridge"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/merge"
	"github.com/dshills/gridstorm/internal/renderer"
	"github.com/dshills/gridstorm/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	Rows       int
	Cols       int
	DataPath   string
	MirrorPath string
	ScriptPath string
	Headless   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	b, initial, err := buildBridge(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// The renderer does not exist yet when the app is constructed, so
	// notices are forwarded through a late-bound pointer.
	var rend *renderer.Renderer
	notice := func(msg string) {
		if rend != nil {
			rend.Notice(msg)
			return
		}
		fmt.Fprintf(os.Stderr, "gridstorm: %s\n", msg)
	}

	if opts.ScriptPath != "" {
		initial, err = runScript(opts, initial)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	appOpts := []app.Option{
		app.WithBridge(b),
		app.WithDimensions(opts.Rows, opts.Cols),
		app.WithNotice(notice),
	}
	if initial != "" {
		appOpts = append(appOpts, app.WithInitialData(initial))
	}

	application, err := app.New(appOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	if opts.Headless {
		stats := application.Statistics()
		tbl := application.Table()
		fmt.Printf("%dx%d cells:%d blocked:%d merged:%d\n",
			tbl.Rows(), tbl.Cols(),
			stats.TotalCells, stats.BlockedCells, stats.MergedVisible)
		return 0
	}

	rend, err = renderer.New(application)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		rend.Stop()
	}()

	if err := rend.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// buildBridge assembles the persistence bridge from the flags. With a
// data path the primary sink is the file and its current contents seed
// the editor; otherwise an in-memory sink is used.
func buildBridge(opts options) (*bridge.Bridge, string, error) {
	var bridgeOpts []bridge.Option
	var initial string

	if opts.DataPath != "" {
		primary := bridge.NewFileSink("data", opts.DataPath)
		text, ok, err := primary.ReadText()
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", opts.DataPath, err)
		}
		if ok {
			initial = text
		}
		bridgeOpts = append(bridgeOpts, bridge.WithPrimary(primary))
	} else {
		bridgeOpts = append(bridgeOpts, bridge.WithPrimary(bridge.NewMemorySink("primary")))
	}

	if opts.MirrorPath != "" {
		bridgeOpts = append(bridgeOpts, bridge.WithMirror(bridge.NewFileSink("mirror", opts.MirrorPath)))
	}

	return bridge.New(bridgeOpts...), initial, nil
}

// runScript executes the automation script against the initial table
// and returns the resulting payload, which then seeds the editor.
func runScript(opts options, initial string) (string, error) {
	var tbl *grid.Table
	var err error

	if initial != "" {
		tbl, err = bridge.Parse(initial)
	} else {
		tbl, err = grid.New(opts.Rows, opts.Cols)
	}
	if err != nil {
		return "", fmt.Errorf("script table: %w", err)
	}

	runner, err := script.NewRunner(tbl, merge.NewManager(tbl))
	if err != nil {
		return "", fmt.Errorf("script runner: %w", err)
	}
	defer runner.Close()

	if err := runner.RunFile(opts.ScriptPath); err != nil {
		return "", err
	}
	return bridge.Serialize(tbl)
}

func parseFlags() options {
	opts := options{Rows: app.DefaultRows, Cols: app.DefaultCols}
	var showVersion bool
	var showHelp bool

	flag.IntVar(&opts.Rows, "rows", app.DefaultRows, "Table rows when no data file exists")
	flag.IntVar(&opts.Cols, "cols", app.DefaultCols, "Table columns when no data file exists")
	flag.StringVar(&opts.DataPath, "data", "", "Path to the table data file")
	flag.StringVar(&opts.DataPath, "f", "", "Path to the table data file (shorthand)")
	flag.StringVar(&opts.MirrorPath, "mirror", "", "Path to a secondary file kept in sync")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua script to run against the table at startup")
	flag.StringVar(&opts.ScriptPath, "s", "", "Lua script to run at startup (shorthand)")
	flag.BoolVar(&opts.Headless, "headless", false, "Run without a terminal UI and print table statistics")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Gridstorm - terminal grid editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gridstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gridstorm                         Open a default 10x10 table\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -f table.json           Open a table file\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -rows 20 -cols 8        Open a 20x8 table\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -s fill.lua -headless   Run a script and print stats\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Gridstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if !grid.ValidDimension(opts.Rows) || !grid.ValidDimension(opts.Cols) {
		fmt.Fprintf(os.Stderr, "Error: dimensions must be between %d and %d\n",
			grid.MinDimension, grid.MaxDimension)
		os.Exit(1)
	}

	return opts
}
