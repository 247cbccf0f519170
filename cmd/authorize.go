package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newAuthorizeCmd() *cobra.Command {
	var (
		envFile   string
		debugMode bool
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Run the interactive Google authorization flow",
		Long: `Obtain and persist a Google OAuth credential ahead of time.

Opens the consent page in a browser and listens on a loopback port for
the redirect. Run this once before starting the server with
--no-interactive, or with --reset to discard a credential granted with
the wrong scopes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(appOptions{
				envFile:     envFile,
				debug:       debugMode,
				interactive: true,
			})
			if err != nil {
				return err
			}

			if reset {
				if err := app.lifecycle.Invalidate(); err != nil {
					return fmt.Errorf("failed to discard stored credential: %w", err)
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			tok, err := app.lifecycle.Credential(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Credential stored in %s\n", app.cfg.TokenFile)
			if !tok.Expiry.IsZero() {
				fmt.Printf("Access token valid until %s\n", tok.Expiry.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file to load before reading configuration")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&reset, "reset", false, "Discard any stored credential before authorizing")

	return cmd
}
