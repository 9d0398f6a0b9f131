package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/sitegen/internal/runner"
)

// composeFile is written by the compose feature.
const composeFile = "docker-compose.yml"

// ComposeCmd forwards its arguments to the compose tool of the engine.
func ComposeCmd(a *app) *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "compose [flags] [compose args...]",
		Short: "Run compose commands in the project",
		Long: `Run docker compose (or podman-compose) in the project directory. Every
argument after the first non-flag one is passed through. SECRET_KEY is set
from sitegen.yaml. The project must enable the compose feature.

Examples:
  sitegen compose up -d
  sitegen compose logs -f
  sitegen compose --engine podman down`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			if err := checkEngine(engine); err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(p.Output(), composeFile)); err != nil {
				return errors.New(composeFile + ` not found; add "compose" to the features of sitegen.yaml and run sitegen sync`)
			}
			if len(args) == 0 {
				args = []string{"--help"}
			}
			command := append(composeCommand(engine), args...)
			bold.Fprintln(cmd.OutOrStdout(), "Running "+strings.Join(command, " "))
			err = a.newRunner(cmd).Run(cmd.Context(), runner.Process{
				Name:    "compose",
				Dir:     p.Output(),
				Command: command,
				Env:     []string{"SECRET_KEY=" + p.SecretKey},
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	// Flags after the first argument belong to the compose tool.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&engine, "engine", "e", engineDocker, "container engine: docker or podman")
	return cmd
}

func composeCommand(engine string) []string {
	if engine == enginePodman {
		return []string{"podman-compose"}
	}
	return []string{"docker", "compose"}
}

