// Package action implements the user-facing operations of outboxd:
// sending email, generating text, and classifying voice commands.
//
// The Service is the single entry point for every boundary (HTTP, MCP
// tools, CLI). All operations return a uniform Result instead of raising
// transport-specific errors, so each boundary only has to render the
// result in its own format.
package action
