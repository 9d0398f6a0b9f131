package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/sitegen/compiler/gen"
	"github.com/syssam/sitegen/compiler/load"
	"github.com/syssam/sitegen/internal/config"
	"github.com/syssam/sitegen/internal/runner"
	"github.com/syssam/sitegen/internal/watch"
)

// SyncCmd regenerates the site from its models.
func SyncCmd(a *app) *cobra.Command {
	var watchModels, install bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Generate the backend and frontend from the models",
		Long: `Generate the backend and frontend of the project from the model
declarations. Generated files are overwritten; outputs of disabled features
are removed. With --install, "go mod tidy" and "npm install" run after the
first sync.

Examples:
  sitegen sync
  sitegen sync --install
  sitegen sync --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return err
			}
			err = syncProject(cmd, a, p)
			if err == nil && install {
				err = installDeps(cmd, a, p)
			}
			if !watchModels {
				return err
			}
			if err != nil {
				a.logger.Error("sync failed", "error", err)
			}
			w := &watch.Watcher{
				Dir:    p.Models(),
				Logger: a.logger,
				Action: func(context.Context) error {
					return syncProject(cmd, a, p)
				},
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&watchModels, "watch", "w", false, "regenerate when a model changes")
	cmd.Flags().BoolVarP(&install, "install", "i", false, "install the backend and frontend dependencies")
	return cmd
}

// syncProject runs the generator over the models of p.
func syncProject(cmd *cobra.Command, a *app, p *config.Project) error {
	r, err := gen.Run(cmd.Context(), load.Dir(p.Models()), p.Options(a.logger)...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	green.Fprint(out, "Synced")
	fmt.Fprintf(out, " %d files in %s\n", len(r.Files), r.Duration.Round(time.Millisecond))
	for _, s := range r.Skipped {
		yellow.Fprint(out, "  skipped ")
		fmt.Fprintln(out, s.Error())
	}
	return nil
}

// installDeps installs the dependencies of each component in turn.
func installDeps(cmd *cobra.Command, a *app, p *config.Project) error {
	r := a.newRunner(cmd)
	for _, proc := range runner.Install(p.Output()) {
		if err := r.Run(cmd.Context(), proc); err != nil {
			return err
		}
		green.Fprint(cmd.OutOrStdout(), "Installed")
		fmt.Fprintln(cmd.OutOrStdout(), " "+proc.Name+" dependencies")
	}
	return nil
}
