package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/internctl/output"
	"github.com/sorenmh/nextintern/internal/lifecycle"
	"github.com/sorenmh/nextintern/internal/logging"
	"github.com/sorenmh/nextintern/internal/session"
	"github.com/sorenmh/nextintern/internal/shared/config"
	"github.com/sorenmh/nextintern/internal/statusctl"
)

// locatePageSize is the page size used when searching for one application
const locatePageSize = 100

// cliEnv is everything a command needs to talk to internd as the logged-in
// viewer.
type cliEnv struct {
	client   *client.Client
	sessions *session.Manager
	status   *statusctl.Controller
	out      *output.Printer
	logger   logging.Logger
}

func newEnv(cmd *cobra.Command) (*cliEnv, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, "console")

	c := client.NewClient(config.GetURL(), "")
	sessions, err := session.NewManager(c, config.NewSessionStore(config.ConfigFile()))
	if err != nil {
		return nil, err
	}
	sessions.OnChange(func(s *session.Session) {
		if s == nil {
			c.SetToken("")
			return
		}
		c.SetToken(s.AccessToken)
	})

	return &cliEnv{
		client:   c,
		sessions: sessions,
		status:   statusctl.New(c, sessions, logger),
		out:      &output.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr(), Format: format},
		logger:   logger,
	}, nil
}

// requireSession returns the logged-in viewer, refreshing the access token
// first when it is about to expire.
func (e *cliEnv) requireSession(ctx context.Context) (session.Session, error) {
	s, err := e.sessions.EnsureFresh(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return s, fmt.Errorf("not logged in; run 'internctl login' first")
	}
	return s, err
}

// loadApplication pages through the applications visible to the viewer until
// applicationID is in the controller's local view. Providers search the
// applications of internshipID; students search their own.
func (e *cliEnv) loadApplication(ctx context.Context, s session.Session, internshipID, applicationID string) (client.Application, error) {
	if s.Role != lifecycle.RoleStudent && internshipID == "" {
		return client.Application{}, fmt.Errorf("--internship is required")
	}

	for page := 0; ; page++ {
		var (
			p   *client.ApplicationPage
			err error
		)
		if s.Role == lifecycle.RoleStudent {
			p, err = e.status.ListMine(ctx, page, locatePageSize)
		} else {
			p, err = e.status.ListForInternship(ctx, internshipID, page, locatePageSize)
		}
		if err != nil {
			return client.Application{}, err
		}

		if app, ok := e.status.Application(applicationID); ok {
			return app, nil
		}
		if len(p.Content) == 0 || page+1 >= p.TotalPages {
			break
		}
	}
	return client.Application{}, fmt.Errorf("application %s: %w", applicationID, statusctl.ErrNotFound)
}
