// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across outboxd so that log
// entries from the credential lifecycle, the mail client, the generation
// chain and the tool dispatcher can be correlated, and it provides
// PII-safe helpers for logging recipient addresses and OAuth tokens.
package logging
