// Command zopt is a line-oriented peephole optimizer driven by a
// rule file: it slides a window over a program's lines, rewrites any
// window that matches a rule's pattern, and writes the result back in
// place. Flag layout and mode dispatch (-tui, -gui, -api-server)
// follow the teacher's main.go, trimmed to the subset that makes sense
// for a rewrite engine rather than a CPU emulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/taylorza/zopt/config"
	"github.com/taylorza/zopt/diffview"
	"github.com/taylorza/zopt/engine"
	"github.com/taylorza/zopt/guiapp"
	"github.com/taylorza/zopt/inspector"
	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/loader"
	"github.com/taylorza/zopt/rule"
	"github.com/taylorza/zopt/service"
	"github.com/taylorza/zopt/tools"
	"github.com/taylorza/zopt/webapi"
)

// Version is set via -ldflags at release build time.
var Version = "dev"

const defaultRuleFile = "rules.opt"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		tuiMode     = flag.Bool("tui", false, "Inspect the rewrite in a terminal UI, stepping rule by rule")
		guiMode     = flag.Bool("gui", false, "Open the desktop GUI instead of running from the command line")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode (no input file required)")
		apiPort     = flag.Int("port", 0, "API server port (used with -api-server; 0 uses the config default)")
		lintRules   = flag.Bool("lint", false, "Check the rule file for shadowed rules and unused bindings, then exit")
		xrefRules   = flag.Bool("xref", false, "Print a binding cross-reference for the rule file, then exit")
		showDiff    = flag.Bool("diff", false, "Print a unified before/after diff after rewriting the input file")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("zopt %s\n", Version)
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *apiServer {
		port := *apiPort
		if port == 0 {
			port = cfg.API.Port
		}
		runAPIServer(port, cfg)
		return
	}

	if *guiMode {
		if err := guiapp.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "zopt: gui error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ruleFile, inputFile, ok := parseArgs()
	if !ok {
		printHelp()
		os.Exit(0)
	}

	if *lintRules || *xrefRules {
		if flag.NArg() == 1 {
			ruleFile = flag.Arg(0)
		}
		runRuleTools(ruleFile, *lintRules, *xrefRules)
		return
	}

	if *tuiMode {
		runTUI(ruleFile, inputFile, cfg)
		return
	}

	runDirect(ruleFile, inputFile, cfg, *showDiff)
}

// parseArgs applies spec.md's CLI contract: one positional arg is the
// input file with the rule file defaulting to rules.opt, two positional
// args are rulefile then inputfile.
func parseArgs() (ruleFile, inputFile string, ok bool) {
	switch flag.NArg() {
	case 1:
		return defaultRuleFile, flag.Arg(0), true
	case 2:
		return flag.Arg(0), flag.Arg(1), true
	default:
		return "", "", false
	}
}

func runDirect(ruleFile, inputFile string, cfg *config.Config, showDiff bool) {
	var before []byte
	if showDiff {
		var readErr error
		before, readErr = os.ReadFile(inputFile) // #nosec G304 -- user-specified input file path
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "zopt: %v\n", readErr)
			os.Exit(1)
		}
	}

	eng, err := loader.LoadRules(ruleFile, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}
	if err := loader.RunFile(eng, inputFile); err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("zopt: %s\n", eng.Stats.String())

	if showDiff {
		after, err := os.ReadFile(inputFile) // #nosec G304 -- user-specified input file path
		if err != nil {
			fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
			os.Exit(1)
		}
		diffText, err := diffview.Render(string(before), string(after), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zopt: error rendering diff: %v\n", err)
		} else {
			fmt.Print(diffText)
		}
	}

	if cfg.Stats.Enabled {
		exportStats(&eng.Stats, cfg)
	}
}

// exportStats writes eng's rewrite statistics to cfg.Stats.OutputFile in
// cfg.Stats.Format, teacher style (main.go's own -stats-file/-stats-format
// handling): failures are reported but not fatal, since stats export is
// an ambient convenience, not part of the rewrite itself.
func exportStats(stats *engine.Stats, cfg *config.Config) {
	f, err := os.Create(cfg.Stats.OutputFile) // #nosec G304 -- user-configured stats output path
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: error creating statistics file: %v\n", err)
		return
	}
	defer f.Close()

	switch cfg.Stats.Format {
	case "csv":
		err = stats.ExportCSV(f)
	case "html":
		err = stats.ExportHTML(f)
	default:
		err = stats.ExportJSON(f)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: error exporting statistics: %v\n", err)
		return
	}
	fmt.Printf("zopt: statistics exported: %s\n", cfg.Stats.OutputFile)
}

func runTUI(ruleFile, inputFile string, cfg *config.Config) {
	svc := service.NewOptimizerServiceWithConfig(cfg)
	if err := svc.LoadRules(ruleFile); err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(inputFile) // #nosec G304 -- user-specified input file path
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}

	sess, err := svc.NewSession(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}

	tui := inspector.NewTUI(sess)
	if err := tui.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "zopt: tui error: %v\n", err)
		os.Exit(1)
	}
}

func runRuleTools(ruleFile string, doLint, doXref bool) {
	data, err := os.ReadFile(ruleFile) // #nosec G304 -- user-specified rule file path
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}

	rules, err := rule.Parse(data, intern.NewTable())
	if err != nil {
		fmt.Fprintf(os.Stderr, "zopt: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	if doLint {
		issues := tools.NewLinter(rules, tools.DefaultLintOptions()).Run()
		for _, issue := range issues {
			fmt.Println(issue.String())
		}
		if tools.HasErrors(issues) {
			exitCode = 1
		}
	}
	if doXref {
		fmt.Print(tools.FormatXRef(tools.CrossReference(rules)))
	}
	os.Exit(exitCode)
}

func runAPIServer(port int, cfg *config.Config) {
	server := webapi.NewServerWithConfig(port, cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nzopt: shutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "zopt: error during shutdown: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "zopt: api server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	shutdown()
}

func printHelp() {
	fmt.Printf(`zopt %s — line-oriented peephole optimizer

Usage: zopt [rulefile] <inputfile>
       zopt -api-server [-port N]
       zopt -tui [rulefile] <inputfile>
       zopt -gui

If one positional argument is given, the rule file defaults to %s.
The input file is rewritten in place.

Options:
  -help          Show this help message
  -version       Show version information
  -tui           Inspect the rewrite step by step in a terminal UI
  -gui           Open the desktop GUI
  -api-server    Start HTTP API server mode (no input file required)
  -port N        API server port (used with -api-server)
  -lint          Check the rule file for shadowed rules and unused bindings
  -xref          Print a binding cross-reference for the rule file

Examples:
  zopt program.asm                  # optimize using ./rules.opt
  zopt myrules.opt program.asm      # optimize using a named rule file
  zopt -tui myrules.opt program.asm # step through the rewrite interactively
  zopt -lint myrules.opt            # lint the rule file
  zopt -api-server -port 3000       # serve the optimizer over HTTP
`, Version, defaultRuleFile)
}
