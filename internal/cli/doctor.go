package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/sitegen/compiler/load"
	"github.com/syssam/sitegen/internal/config"
	"github.com/syssam/sitegen/internal/dbcheck"
)

// Check statuses.
const (
	statusOK   = "✓"
	statusWarn = "⚠"
	statusFail = "✗"
)

// CheckResult is the outcome of a single doctor check.
type CheckResult struct {
	Name    string
	Status  string
	Details string // shown unless Status is statusOK
}

// DoctorCmd validates the project settings, models and database.
func DoctorCmd(a *app) *cobra.Command {
	var (
		quiet   bool
		checker dbcheck.Checker
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project settings, models and database",
		Long: `Check the project of the current directory:

- sitegen.yaml is present and valid
- the models load without errors
- the secret key is set
- the database is reachable
- the site was generated

Examples:
  sitegen doctor
  sitegen doctor --quiet   # exit code only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			checker.Dir = filepath.Join(p.Output(), "backend")
			results := []CheckResult{
				checkConfig(p),
				checkModels(p),
				checkSecretKey(p),
				checkDatabase(cmd, &checker, p),
				checkGenerated(p),
			}
			failed := false
			for _, r := range results {
				failed = failed || r.Status == statusFail
			}
			if !quiet {
				printResults(cmd.OutOrStdout(), results)
			}
			if failed {
				return errors.New("project check failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "exit code only")
	cmd.Flags().DurationVar(&checker.Timeout, "timeout", dbcheck.DefaultTimeout, "database check timeout")
	return cmd
}

func printResults(w io.Writer, results []CheckResult) {
	bold.Fprintf(w, "%-12s %s\n", "Check", "Status")
	fmt.Fprintln(w, strings.Repeat("─", 20))
	for _, r := range results {
		fmt.Fprintf(w, "%-12s ", r.Name)
		switch r.Status {
		case statusOK:
			green.Fprintln(w, r.Status)
		case statusWarn:
			yellow.Fprintln(w, r.Status)
		default:
			red.Fprintln(w, r.Status)
		}
	}
	for _, r := range results {
		if r.Status != statusOK && r.Details != "" {
			fmt.Fprintf(w, "\n%s:\n  %s\n", r.Name, r.Details)
		}
	}
}

func checkConfig(p *config.Project) CheckResult {
	r := CheckResult{Name: "Config", Status: statusOK}
	if err := p.Validate(); err != nil {
		r.Status, r.Details = statusFail, err.Error()
	} else if p.File == "" {
		r.Status, r.Details = statusWarn, config.FileName+" not found; defaults apply"
	}
	return r
}

func checkModels(p *config.Project) CheckResult {
	r := CheckResult{Name: "Models", Status: statusOK}
	res, err := load.Dir(p.Models()).Load()
	switch {
	case err != nil:
		r.Status, r.Details = statusFail, err.Error()
	case len(res.Errors) > 0:
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Error()
		}
		r.Status, r.Details = statusWarn, strings.Join(msgs, "\n  ")
	case len(res.Schemas) == 0:
		r.Status, r.Details = statusWarn, "no entities declared in "+p.Models()
	default:
		r.Details = strings.Join(res.Names(), ", ")
	}
	return r
}

func checkSecretKey(p *config.Project) CheckResult {
	r := CheckResult{Name: "Secret key", Status: statusOK}
	switch p.SecretKey {
	case "":
		r.Status, r.Details = statusFail, "secret_key is empty; the backend refuses to start"
	case config.InsecureSecretKey:
		r.Status, r.Details = statusWarn, "secret_key is the insecure placeholder "+config.InsecureSecretKey
	}
	return r
}

func checkDatabase(cmd *cobra.Command, c *dbcheck.Checker, p *config.Project) CheckResult {
	r := CheckResult{Name: "Database", Status: statusOK}
	t, err := dbcheck.Parse(p.DatabaseURL)
	if err != nil {
		r.Status, r.Details = statusFail, err.Error()
		return r
	}
	if path := t.Path(c.Dir); path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			r.Status, r.Details = statusWarn, path+" does not exist yet; the backend creates it"
			return r
		}
	}
	res, err := c.Check(cmd.Context(), p.DatabaseURL)
	if err != nil {
		r.Status, r.Details = statusFail, err.Error()
		return r
	}
	r.Details = fmt.Sprintf("%s %s (%s)", res.Target.Storage.Name, res.Version, res.Latency.Round(time.Microsecond))
	return r
}

func checkGenerated(p *config.Project) CheckResult {
	r := CheckResult{Name: "Site", Status: statusOK}
	var missing []string
	for _, path := range []string{"backend/internal/api/api.go", "frontend/src/Routes.tsx"} {
		if _, err := os.Stat(filepath.Join(p.Output(), filepath.FromSlash(path))); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		r.Status, r.Details = statusWarn, strings.Join(missing, ", ")+" missing; run sitegen sync"
	}
	return r
}
