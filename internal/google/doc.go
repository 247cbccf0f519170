// Package google manages the Google OAuth2 credential used by outboxd.
//
// The package owns the full credential lifecycle: loading the persisted
// token record, validating its scopes, refreshing expired access tokens,
// and falling back to the interactive browser authorization flow when no
// usable credential exists. Callers never see intermediate states; they
// ask the Lifecycle for a credential and either get a valid one or an
// error describing why none could be obtained.
package google
