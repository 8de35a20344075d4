package command

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatekeep/internal/cli/config"
	"github.com/yndnr/gatekeep/internal/cli/connection"
	"github.com/yndnr/gatekeep/internal/cli/output"
	"github.com/yndnr/gatekeep/internal/infra/buildinfo"
)

const configKey = "config"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "gatekeep-cli",
		Usage:   "gatekeep token, password and session tooling",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
			PasswordCommand(),
			SessionCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load cli config: %w", err)
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[configKey] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags. Unset flags fall back to the
// CLI configuration.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.gatekeep/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "gatekeep-server base URL (e.g., https://site.example)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
	}
}

// GlobalFlags holds the resolved global settings.
type GlobalFlags struct {
	Server string
	Output output.Format
	Config *config.CLIConfig
}

// ParseGlobalFlags merges the global flags over the loaded configuration.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = connection.DefaultTimeout
	}

	flags := &GlobalFlags{Server: cfg.Server, Config: cfg}
	if s := c.String("server"); s != "" {
		flags.Server = s
	}

	format := cfg.Output
	if o := c.String("output"); o != "" {
		format = o
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

// newClient returns an HTTP client for the resolved server.
func newClient(flags *GlobalFlags, cookie string) *connection.HTTPClient {
	client := connection.NewHTTPClient(flags.Server, cookie)
	client.SetTimeout(flags.Config.Timeout)
	return client
}

// render writes data in the selected format.
func render(w io.Writer, format output.Format, data any) error {
	return output.NewFormatter(format).Format(w, data)
}
