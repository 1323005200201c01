// Package cmd implements the CLI command structure for taskmill.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"

	"github.com/taskmill/taskmill/internal/config"
	"github.com/taskmill/taskmill/internal/export"
	"github.com/taskmill/taskmill/internal/logging"
	"github.com/taskmill/taskmill/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

const defaultConfigFile = "taskmill.toml"

// Run executes the taskmill CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskmill", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	configPath := fs.String("config", envOr("TASKMILL_CONFIG", defaultConfigFile), "Path to config file")
	logLevel := fs.String("log-level", envOr("TASKMILL_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", envOr("TASKMILL_LOG_FORMAT", "text"), "Log format (text, json, logfmt)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(os.Stdout)
	}

	logger := logging.FromConfig(*logLevel, *logFormat)

	subcommand := "check"
	remaining := fs.Args()
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		subcommand = remaining[0]
		remaining = remaining[1:]
	}

	// A file path after the subcommand overrides -config.
	path := *configPath
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		path = remaining[0]
		remaining = remaining[1:]
	}

	switch subcommand {
	case "check":
		return checkCommand(os.Stdout, logger, path)
	case "ls":
		return lsCommand(os.Stdout, logger, path)
	case "export":
		return exportCommand(ctx, logger, path, remaining)
	case "tui":
		return tuiCommand(ctx, logger, path)
	case "version":
		return versionCommand(os.Stdout)
	case "help":
		printUsage(fs, os.Stdout)
		return nil
	default:
		// An unrecognized first arg that names a file means "check it".
		if fi, err := os.Stat(subcommand); err == nil && !fi.IsDir() {
			return checkCommand(os.Stdout, logger, subcommand)
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// loadAndResolve parses the config file and resolves its task graph.
func loadAndResolve(logger *log.Logger, path string) (config.Watch, map[config.TaskID]config.ResolvedTask, error) {
	doc, err := config.LoadFile(path)
	if err != nil {
		return config.Watch{}, nil, err
	}
	logger.Debug("parsed config", "path", path, "tasks", len(doc.Tasks))

	watch, tasks, err := config.Resolve(doc)
	if err != nil {
		return config.Watch{}, nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	logger.Debug("resolved task graph", "tasks", len(tasks))
	return watch, tasks, nil
}

// checkCommand parses and resolves the config file, reporting success or
// the first error.
func checkCommand(w io.Writer, logger *log.Logger, path string) error {
	watch, tasks, err := loadAndResolve(logger, path)
	if err != nil {
		return err
	}

	enabled := 0
	for _, task := range tasks {
		if task.Enabled {
			enabled++
		}
	}
	fmt.Fprintf(w, "%s: ok (%d tasks, %d enabled, watch %s)\n",
		path, len(tasks), enabled, onOff(watch.Enabled))
	return nil
}

// lsCommand prints the resolved task table.
func lsCommand(w io.Writer, logger *log.Logger, path string) error {
	_, tasks, err := loadAndResolve(logger, path)
	if err != nil {
		return err
	}

	ids := make([]config.TaskID, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENABLED\tCRON\tON-START\tCMD")
	for _, id := range ids {
		task := tasks[id]
		cron := task.Cron
		if cron == "" {
			cron = "-"
		}
		cmd := strings.Join(task.Cmd, " ")
		if cmd == "" {
			cmd = "-"
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\t%v\t%s\n", id, task.Enabled, cron, task.OnStart, cmd)
	}
	return tw.Flush()
}

// exportCommand writes the resolved output as JSON for external consumers.
func exportCommand(ctx context.Context, logger *log.Logger, path string, args []string) error {
	fs := flag.NewFlagSet("taskmill export", flag.ContinueOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	watch, tasks, err := loadAndResolve(logger, path)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, watch, tasks); err != nil {
		return err
	}
	if *output != "" {
		logger.Info("exported resolved tasks", "path", *output, "tasks", len(tasks))
	}
	return nil
}

// tuiCommand opens the resolved-task viewer.
func tuiCommand(ctx context.Context, logger *log.Logger, path string) error {
	watch, tasks, err := loadAndResolve(logger, path)
	if err != nil {
		return err
	}
	return ui.RunViewer(ctx, watch, tasks)
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "taskmill %s\n", Version)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `taskmill - task config resolution engine

Usage:
  taskmill [flags] <command> [config-file]

Commands:
  check    Parse and resolve the config file (default)
  ls       Print the resolved task table
  export   Write resolved tasks as JSON (-o FILE for a file)
  tui      Browse resolved tasks interactively
  version  Show version
  help     Show this help

Flags:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
