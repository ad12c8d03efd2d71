package cmd

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/health"
	"github.com/felixgeelhaar/oneway/internal/tui"
)

func newDoctorCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check endpoints and the credential store",
		Long: `Check that the configured GraphQL and REST endpoints answer and that the
credential store can be read. No credentials are sent.`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, cc *CommandContext) error {
			report := spin(cc, "Running checks", func() health.Report {
				return newHealthManager(cc).Check(cmd.Context())
			})
			if err := cc.Render(doctorView(report)); err != nil {
				return err
			}
			return reportError(report)
		}),
	}
}

func newHealthManager(cc *CommandContext) *health.Manager {
	client := &http.Client{Timeout: cc.Config.HTTP.Timeout}

	manager := health.NewManager()
	if cc.Config.HTTP.Timeout > 0 {
		manager.WithTimeout(cc.Config.HTTP.Timeout)
	}
	manager.AddChecker(health.NewEndpointChecker("graphql", cc.Config.Endpoints.GraphQL, client))
	manager.AddChecker(health.NewEndpointChecker("api", cc.Config.Endpoints.API, client))
	manager.AddChecker(health.NewStoreChecker(cc.Store))
	return manager
}

// reportError maps the first unhealthy check to a coded error.
func reportError(report health.Report) error {
	failed := report.Failed()
	if len(failed) == 0 {
		return nil
	}

	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	msg := fmt.Sprintf("checks failed: %s", strings.Join(names, ", "))

	if failed[0].Name == "credential-store" {
		return errors.New(errors.ErrCodeStoreRead, msg)
	}
	return errors.New(errors.ErrCodeNetworkUnavailable, msg).
		WithSuggestion("Check that the backend is running and reachable")
}

type doctorView health.Report

func (v doctorView) RenderText(w io.Writer, color bool) error {
	for _, r := range v.Checks {
		kind := "success"
		switch r.Status {
		case health.StatusDegraded:
			kind = "warning"
		case health.StatusUnhealthy:
			kind = "error"
		}
		line := fmt.Sprintf("%s: %s", r.Name, r.Message)
		if e, ok := r.Details["error"]; ok {
			line += fmt.Sprintf(" (%v)", e)
		}
		if _, err := fmt.Fprintln(w, tui.Notice(kind, line, color)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nOverall: %s\n", v.Status)
	return err
}
