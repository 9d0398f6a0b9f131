// Package cli implements the sitegen command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/syssam/sitegen/internal/config"
	"github.com/syssam/sitegen/internal/runner"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = 1
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// commandContext builds the external commands started by run, build,
// compose and sync --install.
var commandContext = exec.CommandContext

// app holds the state shared by the commands.
type app struct {
	dir     string
	verbose bool
	logger  *slog.Logger
}

// project loads the configuration of the project directory.
func (a *app) project() (*config.Project, error) {
	return config.Load(a.dir)
}

// newRunner returns a process runner writing to the outputs of cmd.
func (a *app) newRunner(cmd *cobra.Command) *runner.Runner {
	return &runner.Runner{
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
		Logger:  a.logger,
		Command: commandContext,
	}
}

// NewRootCmd returns the sitegen command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sitegen",
		Short: "Generate admin sites from model declarations",
		Long: `sitegen reads the entity declarations of a project and generates a Go
API backend and a React admin frontend for them.

Examples:
  sitegen create shop
  sitegen sync --watch
  sitegen run --component backend`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "project directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(
		CreateCmd(a),
		SyncCmd(a),
		RunCmd(a),
		BuildCmd(a),
		ComposeCmd(a),
		DoctorCmd(a),
		VersionCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		red.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
	return exitSuccess
}

// VersionCmd prints the sitegen version.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sitegen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sitegen", Version)
		},
	}
}
