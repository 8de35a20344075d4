package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatekeep/internal/core/service"
)

// PasswordCommand returns the password subcommand group.
func PasswordCommand() *cli.Command {
	defaults := service.DefaultArgon2Params()

	return &cli.Command{
		Name:  "password",
		Usage: "Prepare surface passwords",
		Subcommands: []*cli.Command{
			{
				Name:  "hash",
				Usage: "Print an argon2id hash usable as a configured password",
				Description: "The password is read from the first line of stdin unless " +
					"--password is given.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password to hash (visible in shell history; prefer stdin)",
					},
					&cli.UintFlag{
						Name:  "memory",
						Value: uint(defaults.Memory),
						Usage: "argon2id memory in KiB",
					},
					&cli.UintFlag{
						Name:  "time",
						Value: uint(defaults.Time),
						Usage: "argon2id iterations",
					},
					&cli.UintFlag{
						Name:  "parallelism",
						Value: uint(defaults.Parallelism),
						Usage: "argon2id lanes",
					},
				},
				Action: passwordHash,
			},
		},
	}
}

func passwordHash(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		line, err := readLine(c.App.Reader)
		if err != nil {
			return err
		}
		password = line
	}
	if password == "" {
		return errors.New("empty password")
	}

	params, err := argon2Params(c)
	if err != nil {
		return err
	}
	hash, err := service.HashPassword(password, params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, hash)
	return err
}

func argon2Params(c *cli.Context) (service.Argon2Params, error) {
	p := service.DefaultArgon2Params()

	memory, iterations, lanes := c.Uint("memory"), c.Uint("time"), c.Uint("parallelism")
	switch {
	case memory < 8 || memory > 4<<20:
		return p, fmt.Errorf("memory %d KiB out of range [8, %d]", memory, 4<<20)
	case iterations < 1 || iterations > 64:
		return p, fmt.Errorf("time %d out of range [1, 64]", iterations)
	case lanes < 1 || lanes > 255:
		return p, fmt.Errorf("parallelism %d out of range [1, 255]", lanes)
	}

	p.Memory = uint32(memory)
	p.Time = uint32(iterations)
	p.Parallelism = uint8(lanes)
	return p, nil
}

// readLine returns the first line of r without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
