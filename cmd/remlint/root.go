package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"blake.io/remlint/internal/config"
	"blake.io/remlint/internal/logging"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

type app struct {
	stdout io.Writer
	stderr io.Writer

	format   string
	logLevel string

	cfg *config.Config
	log *log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:               "remlint",
		Short:             "Check Remfiles",
		Long:              "Remlint reports syntax, naming and task graph problems in Remfiles.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.format, "format", "", "output format: text, json or html")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(a.checkCmd(), a.tasksCmd(), a.versionCmd())
	return root
}

// setup loads the configuration for the current directory and applies
// flag overrides.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	a.cfg, err = config.Load(wd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") {
		a.format = a.cfg.OutputFormat
	}
	if !cmd.Flags().Changed("log-level") {
		a.logLevel = a.cfg.LogLevel
	}
	switch a.format {
	case "text", "json", "html":
	default:
		return fmt.Errorf("unknown output format %q", a.format)
	}
	a.log = logging.New(a.stderr, a.logLevel, "remlint")
	a.log.Debug("configuration", "global", a.cfg.Paths.Global, "project", a.cfg.Paths.Project)
	return nil
}

// files returns args, or the Remfiles present in the current directory.
func (a *app) files(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var found []string
	for _, name := range a.cfg.Names {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return nil, errors.New("no Remfile in the current directory")
	}
	return found, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "remlint %s\n", Version)
			return err
		},
	}
}
