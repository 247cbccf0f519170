package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tmeadows/outboxd/internal/action"
)

// stringArg extracts a string argument, tolerating absent optional values.
func stringArg(args map[string]any, name string) string {
	if value, ok := args[name].(string); ok {
		return value
	}
	return ""
}

// RegisterEmailTools registers the email and generation tools backed by
// the action service.
func RegisterEmailTools(r *Registry, svc *action.Service) error {
	sendEmailTool := mcp.NewTool("send_email",
		mcp.WithDescription("Send an email to a recipient through Gmail"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject line"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain-text email body"),
		),
	)

	if err := r.Register(sendEmailTool, func(ctx context.Context, args map[string]any) action.Result {
		return svc.SendEmail(ctx,
			stringArg(args, "to"),
			stringArg(args, "subject"),
			stringArg(args, "body"),
		)
	}); err != nil {
		return fmt.Errorf("failed to register send_email: %w", err)
	}

	composeEmailTool := mcp.NewTool("compose_email",
		mcp.WithDescription("Generate an email body from a prompt and send it"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject line"),
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Instruction describing the email to write"),
		),
	)

	if err := r.Register(composeEmailTool, func(ctx context.Context, args map[string]any) action.Result {
		return svc.ComposeAndSend(ctx,
			stringArg(args, "to"),
			stringArg(args, "subject"),
			stringArg(args, "prompt"),
		)
	}); err != nil {
		return fmt.Errorf("failed to register compose_email: %w", err)
	}

	generateTextTool := mcp.NewTool("generate_text",
		mcp.WithDescription("Generate text from a prompt using the configured model providers"),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Prompt to generate text for"),
		),
	)

	if err := r.Register(generateTextTool, func(ctx context.Context, args map[string]any) action.Result {
		text := svc.GenerateText(ctx, stringArg(args, "prompt"))
		if text == "" {
			return action.Failure("no generation provider produced output")
		}
		return action.Result{Success: true, Message: text}
	}); err != nil {
		return fmt.Errorf("failed to register generate_text: %w", err)
	}

	classifyTool := mcp.NewTool("classify_command",
		mcp.WithDescription("Classify a voice command as an email request or something else"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Voice command transcript"),
		),
	)

	if err := r.Register(classifyTool, func(ctx context.Context, args map[string]any) action.Result {
		c := action.ClassifyCommand(stringArg(args, "command"))
		return action.Result{Success: true, Message: c.Message}
	}); err != nil {
		return fmt.Errorf("failed to register classify_command: %w", err)
	}

	return nil
}
