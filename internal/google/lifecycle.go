package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/tmeadows/outboxd/internal/instrumentation"
	"github.com/tmeadows/outboxd/internal/logging"
)

// expirySkew is subtracted from the token expiry when checking validity
// so a token about to expire mid-request is refreshed up front.
const expirySkew = 30 * time.Second

// Authorizer runs an interactive authorization and returns the granted
// token. Flow is the production implementation.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Lifecycle owns the credential state machine. All transitions happen
// inside Credential under a single mutex, so concurrent callers never
// trigger duplicate refreshes or overlapping authorization flows.
type Lifecycle struct {
	mu    sync.Mutex
	cfg   *oauth2.Config
	store *Store
	auth  Authorizer

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time

	cached *oauth2.Token
}

// NewLifecycle creates a lifecycle over the given config, store, and
// interactive authorizer.
func NewLifecycle(cfg *oauth2.Config, store *Store, auth Authorizer, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		cfg:    cfg,
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// WithInstrumentation attaches metrics recording to refresh and
// authorization transitions.
func (l *Lifecycle) WithInstrumentation(metrics *instrumentation.Metrics) *Lifecycle {
	l.metrics = metrics
	return l
}

// Credential returns a valid token, walking the credential state machine
// as needed: cached, persisted, refreshed, or freshly authorized. The
// call blocks while another caller is mid-transition.
func (l *Lifecycle) Credential(ctx context.Context) (*oauth2.Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached == nil {
		if err := l.loadLocked(); err != nil && !errors.Is(err, ErrNoCredential) {
			return nil, err
		}
	}

	if l.cached != nil {
		if l.validLocked(l.cached) {
			return l.cached, nil
		}
		if l.cached.RefreshToken != "" {
			tok, err := l.refreshLocked(ctx)
			if err == nil {
				return tok, nil
			}
			l.logger.Warn("token refresh failed, falling back to authorization",
				logging.Operation("refresh"),
				logging.Err(err))
		} else {
			l.logger.Info("credential expired without refresh token",
				logging.Operation("refresh"))
		}
		l.cached = nil
	}

	return l.authorizeLocked(ctx)
}

// loadLocked reads the persisted record into the cache, discarding it if
// the granted scopes no longer cover RequiredScopes.
func (l *Lifecycle) loadLocked() error {
	rec, err := l.store.Load()
	if err != nil {
		return err
	}

	if !HasRequiredScopes(rec.Scopes) {
		l.logger.Info("persisted credential missing required scopes, discarding",
			logging.Operation("load"),
			slog.Int("granted", len(rec.Scopes)),
			slog.Int("required", len(RequiredScopes)))
		if err := l.store.Delete(); err != nil {
			return err
		}
		return ErrNoCredential
	}

	l.cached = rec.Token()
	return nil
}

func (l *Lifecycle) validLocked(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return l.now().Before(tok.Expiry.Add(-expirySkew))
}

// refreshLocked makes exactly one refresh attempt. The refreshed token is
// persisted before it is returned so a crash right after refresh does not
// lose the new credential.
func (l *Lifecycle) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	start := l.now()
	tok, err := l.cfg.TokenSource(ctx, l.cached).Token()
	if err != nil {
		l.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	// Google omits the refresh token from refresh responses; carry the
	// original forward so the next refresh still works.
	if tok.RefreshToken == "" {
		tok.RefreshToken = l.cached.RefreshToken
	}

	if err := l.store.Save(NewRecord(tok, RequiredScopes)); err != nil {
		l.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, err
	}

	l.cached = tok
	l.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	l.logger.Info("token refreshed",
		logging.Operation("refresh"),
		slog.Duration(logging.KeyDuration, l.now().Sub(start)),
		logging.Status(logging.StatusSuccess))
	return tok, nil
}

// authorizeLocked runs the interactive flow and persists the result.
func (l *Lifecycle) authorizeLocked(ctx context.Context) (*oauth2.Token, error) {
	if l.auth == nil {
		return nil, errors.New("no credential available and interactive authorization is disabled")
	}

	l.logger.Info("starting interactive authorization",
		logging.Operation("authorize"))

	tok, err := l.auth.Authorize(ctx)
	if err != nil {
		l.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	if err := l.store.Save(NewRecord(tok, RequiredScopes)); err != nil {
		l.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, err
	}

	l.cached = tok
	l.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	l.logger.Info("authorization complete",
		logging.Operation("authorize"),
		logging.Status(logging.StatusSuccess))
	return tok, nil
}

// HasCredential reports whether a usable persisted or cached credential
// exists without triggering refresh or authorization.
func (l *Lifecycle) HasCredential() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return true
	}
	rec, err := l.store.Load()
	return err == nil && HasRequiredScopes(rec.Scopes)
}

// Invalidate drops the cached and persisted credential. The next
// Credential call starts the state machine from scratch.
func (l *Lifecycle) Invalidate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cached = nil
	return l.store.Delete()
}

// tokenSource adapts the lifecycle to oauth2.TokenSource so HTTP clients
// pick up refreshed credentials transparently.
type tokenSource struct {
	ctx context.Context
	l   *Lifecycle
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	return ts.l.Credential(ts.ctx)
}

// HTTPClient returns an HTTP client that authenticates requests with the
// lifecycle's credential. The client forces HTTP/1.1 because the Google
// API endpoints intermittently reset HTTP/2 streams on long uploads.
func (l *Lifecycle) HTTPClient(ctx context.Context) (*http.Client, error) {
	if _, err := l.Credential(ctx); err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, tokenSource{ctx: ctx, l: l})
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{ForceAttemptHTTP2: false}
	}

	return client, nil
}
