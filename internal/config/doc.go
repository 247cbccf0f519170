// Package config loads and validates the outboxd process configuration.
//
// Configuration comes from environment variables, optionally seeded from a
// .env file. Validation happens once at startup: a missing required value
// is a fatal configuration error, never something deferred to the first
// call that happens to need it.
package config
