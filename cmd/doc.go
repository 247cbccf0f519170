// Package cmd implements the outboxd command line interface.
//
// The root command defaults to serve, which runs the action server over
// the HTTP JSON API or the MCP stdio transport. The send and authorize
// commands cover one-shot use: sending a single message and completing
// the interactive Google authorization flow ahead of unattended runs.
package cmd
