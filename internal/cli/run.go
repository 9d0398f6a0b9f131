package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-openapi/inflect"
	"github.com/spf13/cobra"

	"github.com/syssam/sitegen/internal/config"
	"github.com/syssam/sitegen/internal/runner"
)

// Container engines of build and compose.
const (
	engineDocker = "docker"
	enginePodman = "podman"
)

// RunCmd starts the development processes of the site.
func RunCmd(a *app) *cobra.Command {
	var component string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the backend and the frontend dev server",
		Long: `Run the generated backend and the frontend dev server side by side. The
backend gets DATABASE_URL, SECRET_KEY, UPLOAD_DIR and ALLOWED_ORIGINS from
sitegen.yaml. Missing Go sums and node modules are installed first. When
one process exits the other is stopped.

Examples:
  sitegen run
  sitegen run --component backend`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			procs, err := runner.Plan(p.Output(), component, p.Env())
			if err != nil {
				return err
			}
			err = a.newRunner(cmd).Run(cmd.Context(), procs...)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&component, "component", runner.All, "component to run: backend, frontend or all")
	return cmd
}

// BuildCmd builds the container images of the site.
func BuildCmd(a *app) *cobra.Command {
	var component, engine, tag string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the container images of the site",
		Long: `Build the backend and frontend images from their Dockerfiles. Images are
tagged <project>-<component>:<tag>, one at a time.

Examples:
  sitegen build
  sitegen build --component backend --engine podman --tag v1.2.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			if err := checkEngine(engine); err != nil {
				return err
			}
			var components []string
			switch component {
			case runner.Backend, runner.Frontend:
				components = []string{component}
			case runner.All:
				components = []string{runner.Backend, runner.Frontend}
			default:
				return fmt.Errorf("unknown component %q; use backend, frontend or all", component)
			}
			r := a.newRunner(cmd)
			out := cmd.OutOrStdout()
			for _, c := range components {
				dir := filepath.Join(p.Output(), c)
				if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err != nil {
					return fmt.Errorf("%s Dockerfile not found in %s; run sitegen sync first", c, dir)
				}
				image := imageName(p, c, tag)
				err := r.Run(cmd.Context(), runner.Process{
					Name:    c,
					Dir:     dir,
					Command: []string{engine, "build", "-t", image, "."},
				})
				if err != nil {
					return err
				}
				green.Fprint(out, "Built")
				fmt.Fprintln(out, " "+image)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&component, "component", "c", runner.All, "component to build: backend, frontend or all")
	cmd.Flags().StringVarP(&engine, "engine", "e", engineDocker, "container engine: docker or podman")
	cmd.Flags().StringVarP(&tag, "tag", "t", "latest", "image tag")
	return cmd
}

func checkEngine(engine string) error {
	if !slices.Contains([]string{engineDocker, enginePodman}, engine) {
		return fmt.Errorf("unknown engine %q; use docker or podman", engine)
	}
	return nil
}

// imageName returns the image of a component, e.g. "my-shop-backend:latest".
func imageName(p *config.Project, component, tag string) string {
	return inflect.Parameterize(p.ProjectName) + "-" + component + ":" + tag
}
