package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatekeep/internal/cli/connection"
	"github.com/yndnr/gatekeep/internal/core/domain"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect nordlys sessions on a running server",
		Subcommands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Report whether a session cookie is signed in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "cookie",
						Usage:    "Session token, or a full NAME=VALUE cookie",
						Required: true,
					},
				},
				Action: sessionCheck,
			},
		},
	}
}

type sessionStatus struct {
	Server        string `json:"server"`
	Authenticated bool   `json:"authenticated"`
	Status        int    `json:"status"`
}

var errNotAuthenticated = errors.New("not authenticated")

func sessionCheck(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	client := newClient(flags, cookieHeader(c.String("cookie")))

	ctx, cancel := context.WithTimeout(c.Context, flags.Config.Timeout)
	defer cancel()

	resp, err := client.Get(ctx, "/api/nordlys-session")
	if err != nil {
		return err
	}

	status := sessionStatus{Server: client.BaseURL(), Status: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusOK:
		resp.Body.Close()
		status.Authenticated = true
	case http.StatusUnauthorized:
		resp.Body.Close()
	default:
		if err := connection.ParseResponse(resp, nil); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := render(c.App.Writer, flags.Output, status); err != nil {
		return err
	}
	if !status.Authenticated {
		return errNotAuthenticated
	}
	return nil
}

// cookieHeader turns a bare token into a nordlys cookie.
func cookieHeader(v string) string {
	v = strings.TrimSpace(v)
	if strings.Contains(v, "=") {
		return v
	}
	return domain.NordlysSurface().CookieName + "=" + v
}
