package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"

	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/toggl"
)

const (
	keyringService = "tally"
	keyringKey     = "api_token"

	// tokenEnv overrides the keyring when set; useful for CI and one-offs.
	tokenEnv = "TOGGL_API_TOKEN"
)

// ResolveToken returns the Toggl API token from the environment or the
// system keyring. An empty string with nil error means no token is stored.
func ResolveToken() (string, error) {
	if tok := os.Getenv(tokenEnv); tok != "" {
		return tok, nil
	}

	tok, err := keyring.Get(keyringService, keyringKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return tok, nil
}

type AuthCmd struct {
	flags *Flags

	// flags
	clear bool
}

// NewAuthCmd creates a new auth command
func NewAuthCmd(flags *Flags) *AuthCmd {
	return &AuthCmd{flags: flags}
}

// Register adds the auth command to the application
func (cmd *AuthCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "auth",
		Usage:     "Store the Toggl API token in the system keyring",
		UsageText: "tally auth [--clear]",
		Description: `Prompts for a Toggl Track API token, verifies it against the API, and
stores it in the system keyring.

The TOGGL_API_TOKEN environment variable takes precedence over the
keyring when both are set. Find your token at
https://track.toggl.com/profile.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "remove the stored token",
				Destination: &cmd.clear,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AuthCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.clear {
		err := keyring.Delete(keyringService, keyringKey)
		if errors.Is(err, keyring.ErrNotFound) {
			p.Mutedf("no token stored")
			return nil
		}
		if err != nil {
			return fmt.Errorf("clear keyring: %w", err)
		}
		p.Successf("token removed")
		return nil
	}

	var token string
	err := huh.NewInput().
		Title("Toggl API token").
		Description("From https://track.toggl.com/profile").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("token is required")
			}
			return nil
		}).
		Value(&token).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("prompt: %w", err)
	}
	token = strings.TrimSpace(token)

	// Verify before storing so a typo doesn't poison every later command.
	client := toggl.NewClient(toggl.ClientConfig{Token: token})
	me, err := client.Me(ctx)
	if err != nil {
		if errors.Is(err, toggl.ErrUnauthorized) {
			return errors.New("toggl rejected the token; check it and try again")
		}
		return fmt.Errorf("verify token: %w", err)
	}

	if err := keyring.Set(keyringService, keyringKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	p.Successf("authenticated as %s", me.Fullname)
	return nil
}
