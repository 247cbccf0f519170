// Package genai generates text through external model providers with
// ordered fallback.
//
// Providers are tried in configuration order. A provider that errors or
// returns empty output counts as failed and the next one is tried; the
// first non-empty result wins. When every provider fails the chain
// returns an empty string rather than an error, so callers degrade to
// their own fallback content instead of handling generation failures.
package genai
