package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tmeadows/outboxd/internal/logging"
)

// LoadOAuthConfig reads an OAuth client secret JSON file (the
// "installed app" credentials downloaded from the Google Cloud console)
// and returns an oauth2.Config requesting RequiredScopes.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsFile, err)
	}

	cfg, err := google.ConfigFromJSON(data, RequiredScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}

	return cfg, nil
}

// Flow runs the interactive browser authorization. It starts a loopback
// callback listener, prints the consent URL for the user to open, and
// exchanges the returned code for a token.
type Flow struct {
	cfg     *oauth2.Config
	timeout time.Duration
	logger  *slog.Logger

	// openURL is overridable for tests. The default prints the URL to
	// stderr so stdout stays clean for command output.
	openURL func(url string)
}

// NewFlow creates an interactive flow with the given per-run timeout.
func NewFlow(cfg *oauth2.Config, timeout time.Duration, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		cfg:     cfg,
		timeout: timeout,
		logger:  logger,
		openURL: func(url string) {
			fmt.Fprintf(os.Stderr, "Open the following URL in your browser to authorize outboxd:\n\n%s\n\n", url)
		},
	}
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the flow and returns the granted token. The callback
// listener binds to a random port on 127.0.0.1 only; the redirect never
// leaves the machine.
func (f *Flow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	defer listener.Close()

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	cfg := *f.cfg
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr().String())

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callbackResult{err: fmt.Errorf("authorization state mismatch")}
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			results <- callbackResult{err: fmt.Errorf("authorization denied: %s", errMsg)}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			results <- callbackResult{err: fmt.Errorf("authorization callback missing code")}
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		results <- callbackResult{code: code}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			f.logger.Warn("callback server stopped", logging.Err(serveErr))
		}
	}()
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	f.openURL(authURL)
	f.logger.Info("waiting for authorization callback",
		slog.String("redirect", cfg.RedirectURL),
		slog.Duration("timeout", f.timeout))

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization timed out: %w", ctx.Err())
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
