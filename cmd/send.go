package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tmeadows/outboxd/internal/action"
)

func newSendCmd() *cobra.Command {
	var (
		to        string
		subject   string
		body      string
		prompt    string
		envFile   string
		debugMode bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email from the command line",
		Long: `Send a single email through the configured Gmail account.

With --body the message is sent as given. With --prompt the body is
generated by the configured provider chain first; if no provider
produces output, a minimal placeholder body is used so the send still
goes out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if body == "" && prompt == "" {
				return errors.New("one of --body or --prompt is required")
			}
			if body != "" && prompt != "" {
				return errors.New("--body and --prompt are mutually exclusive")
			}

			app, err := newApplication(appOptions{
				envFile:     envFile,
				debug:       debugMode,
				interactive: true,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var result action.Result
			if prompt != "" {
				result = app.service.ComposeAndSend(ctx, to, subject, prompt)
			} else {
				result = app.service.SendEmail(ctx, to, subject, body)
			}

			if !result.Success {
				return errors.New(result.Message)
			}

			fmt.Println(result.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient email address (required)")
	cmd.Flags().StringVar(&subject, "subject", "", "Email subject (required)")
	cmd.Flags().StringVar(&body, "body", "", "Email body to send as-is")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt to generate the email body from")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file to load before reading configuration")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
