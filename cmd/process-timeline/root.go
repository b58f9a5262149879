package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrzor/process-timeline/internal/config"
	"github.com/mrzor/process-timeline/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	configPath string
	width      int
}

// globalFlags are the persistent flags that override config values.
type globalFlags struct {
	format    string
	output    string
	verbose   bool
	jsonLogs  bool
	keepGoing bool
	dbPath    string
	labels    []string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var flags globalFlags

	root := &cobra.Command{
		Use:           "process-timeline",
		Short:         "Trace a process tree with strace and lay it out on a timeline",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: process-timeline.yaml in /etc/process-timeline, the user config dir or .)")
	pf.StringVarP(&flags.format, "format", "f", "", fmt.Sprintf("output format %v", config.Formats))
	pf.StringVarP(&flags.output, "output", "o", "", `output file ("-" for stdout)`)
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&flags.jsonLogs, "json-logs", false, "log as JSON")
	pf.BoolVar(&flags.keepGoing, "keep-going", false, "skip lines that violate the trace protocol instead of failing")
	pf.StringVar(&flags.dbPath, "db", "", "recordings database path")
	pf.StringArrayVarP(&flags.labels, "label", "l", nil, "custom label NAME=EXPR evaluated per process (repeatable)")
	pf.IntVar(&a.width, "width", 100, "timeline width in columns")

	root.AddCommand(newRecordCmd(a))
	root.AddCommand(newReplayCmd(a))
	root.AddCommand(newSessionsCmd(a))

	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, flags globalFlags) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("format") {
		cfg.Format = flags.format
	}
	if changed("output") {
		cfg.Output = flags.output
	}
	if changed("verbose") {
		cfg.Verbose = flags.verbose
	}
	if changed("json-logs") {
		cfg.JSONLogs = flags.jsonLogs
	}
	if changed("keep-going") {
		cfg.KeepGoing = flags.keepGoing
	}
	if changed("db") {
		cfg.DBPath = flags.dbPath
	}
	if changed("label") {
		cfg.Labels = append(cfg.Labels, flags.labels...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Verbose: cfg.Verbose, JSON: cfg.JSONLogs})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
