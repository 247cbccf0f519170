package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/oauth2"

	"github.com/tmeadows/outboxd/internal/instrumentation"
)

type fakeAuthorizer struct {
	tok   *oauth2.Token
	err   error
	calls int
}

func (f *fakeAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tok, nil
}

// refreshServer serves the OAuth token endpoint and counts refresh hits.
func refreshServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       RequiredScopes,
	}
}

func TestCredentialValidTokenNoNetwork(t *testing.T) {
	store := testStore(t)
	tok := &oauth2.Token{
		AccessToken:  "valid",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := store.Save(NewRecord(tok, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuthorizer{}
	l := NewLifecycle(testConfig("http://invalid.test/token"), store, auth, nil)

	got, err := l.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got.AccessToken != "valid" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "valid")
	}
	if auth.calls != 0 {
		t.Errorf("authorizer called %d times, want 0", auth.calls)
	}
}

func TestCredentialExpiredRefreshesOnce(t *testing.T) {
	srv, hits := refreshServer(t)
	store := testStore(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := store.Save(NewRecord(expired, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuthorizer{}
	l := NewLifecycle(testConfig(srv.URL+"/token"), store, auth, nil)

	got, err := l.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got.AccessToken != "refreshed" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "refreshed")
	}
	if *hits != 1 {
		t.Errorf("token endpoint hit %d times, want 1", *hits)
	}
	if auth.calls != 0 {
		t.Errorf("authorizer called %d times, want 0", auth.calls)
	}

	// Refresh token must survive persist even though the endpoint
	// response omitted it.
	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after refresh error = %v", err)
	}
	if rec.RefreshToken != "refresh" {
		t.Errorf("persisted RefreshToken = %q, want %q", rec.RefreshToken, "refresh")
	}
	if rec.AccessToken != "refreshed" {
		t.Errorf("persisted AccessToken = %q, want %q", rec.AccessToken, "refreshed")
	}
}

func TestCredentialExpiredNoRefreshTokenAuthorizes(t *testing.T) {
	store := testStore(t)
	expired := &oauth2.Token{
		AccessToken: "stale",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(-time.Hour),
	}
	if err := store.Save(NewRecord(expired, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuthorizer{tok: &oauth2.Token{
		AccessToken: "fresh",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}}
	l := NewLifecycle(testConfig("http://invalid.test/token"), store, auth, nil)

	got, err := l.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "fresh")
	}
	if auth.calls != 1 {
		t.Errorf("authorizer called %d times, want 1", auth.calls)
	}
}

func TestCredentialRefreshFailureFallsBackToAuthorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	store := testStore(t)
	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := store.Save(NewRecord(expired, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuthorizer{tok: &oauth2.Token{
		AccessToken: "fresh",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}}
	l := NewLifecycle(testConfig(srv.URL+"/token"), store, auth, nil)

	got, err := l.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "fresh")
	}
	if auth.calls != 1 {
		t.Errorf("authorizer called %d times, want 1", auth.calls)
	}
}

func TestCredentialMissingScopesForcesAuthorize(t *testing.T) {
	store := testStore(t)
	tok := &oauth2.Token{
		AccessToken: "valid",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	// Granted for fewer scopes than now required.
	if err := store.Save(NewRecord(tok, RequiredScopes[:2])); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuthorizer{tok: &oauth2.Token{
		AccessToken: "rescoped",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}}
	l := NewLifecycle(testConfig("http://invalid.test/token"), store, auth, nil)

	got, err := l.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got.AccessToken != "rescoped" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "rescoped")
	}
	if auth.calls != 1 {
		t.Errorf("authorizer called %d times, want 1", auth.calls)
	}
}

func TestCredentialExpirySkew(t *testing.T) {
	srv, hits := refreshServer(t)
	store := testStore(t)

	// Expires inside the skew window, so it should be treated as stale.
	nearExpiry := &oauth2.Token{
		AccessToken:  "almost-stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(10 * time.Second),
	}
	if err := store.Save(NewRecord(nearExpiry, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	l := NewLifecycle(testConfig(srv.URL+"/token"), store, &fakeAuthorizer{}, nil)
	got, err := l.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got.AccessToken != "refreshed" {
		t.Errorf("AccessToken = %q, want refresh inside skew window", got.AccessToken)
	}
	if *hits != 1 {
		t.Errorf("token endpoint hit %d times, want 1", *hits)
	}
}

func TestCredentialConcurrentCallsSingleRefresh(t *testing.T) {
	srv, hits := refreshServer(t)
	store := testStore(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := store.Save(NewRecord(expired, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	l := NewLifecycle(testConfig(srv.URL+"/token"), store, &fakeAuthorizer{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Credential(context.Background()); err != nil {
				t.Errorf("Credential() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if *hits != 1 {
		t.Errorf("token endpoint hit %d times, want 1", *hits)
	}
}

func newTestMetrics(t *testing.T) (*instrumentation.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

// counterResults maps the result attribute of each series to its count.
func counterResults(t *testing.T, reader *sdkmetric.ManualReader, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	results := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			if mt.Name != name {
				continue
			}
			sum, ok := mt.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s has data type %T, want Sum[int64]", name, mt.Data)
			}
			for _, p := range sum.DataPoints {
				result, _ := p.Attributes.Value(attribute.Key("result"))
				results[result.AsString()] += p.Value
			}
		}
	}
	return results
}

func TestCredentialRefreshRecordsMetrics(t *testing.T) {
	srv, _ := refreshServer(t)
	store := testStore(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := store.Save(NewRecord(expired, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	m, reader := newTestMetrics(t)
	l := NewLifecycle(testConfig(srv.URL+"/token"), store, &fakeAuthorizer{}, nil).WithInstrumentation(m)

	if _, err := l.Credential(context.Background()); err != nil {
		t.Fatalf("Credential() error = %v", err)
	}

	refreshes := counterResults(t, reader, "oauth_token_refresh_total")
	if refreshes[instrumentation.OAuthResultSuccess] != 1 {
		t.Errorf("refresh successes = %d, want 1", refreshes[instrumentation.OAuthResultSuccess])
	}
	if refreshes[instrumentation.OAuthResultFailure] != 0 {
		t.Errorf("refresh failures = %d, want 0", refreshes[instrumentation.OAuthResultFailure])
	}
}

func TestCredentialRefreshFailureRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	store := testStore(t)
	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := store.Save(NewRecord(expired, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuthorizer{tok: &oauth2.Token{
		AccessToken: "fresh",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}}

	m, reader := newTestMetrics(t)
	l := NewLifecycle(testConfig(srv.URL+"/token"), store, auth, nil).WithInstrumentation(m)

	if _, err := l.Credential(context.Background()); err != nil {
		t.Fatalf("Credential() error = %v", err)
	}

	refreshes := counterResults(t, reader, "oauth_token_refresh_total")
	if refreshes[instrumentation.OAuthResultFailure] != 1 {
		t.Errorf("refresh failures = %d, want 1", refreshes[instrumentation.OAuthResultFailure])
	}
	auths := counterResults(t, reader, "oauth_auth_total")
	if auths[instrumentation.OAuthResultSuccess] != 1 {
		t.Errorf("authorization successes = %d, want 1", auths[instrumentation.OAuthResultSuccess])
	}
}

func TestCredentialAuthorizeFailureRecordsMetrics(t *testing.T) {
	store := testStore(t)
	auth := &fakeAuthorizer{err: fmt.Errorf("user denied access")}

	m, reader := newTestMetrics(t)
	l := NewLifecycle(testConfig("http://invalid.test/token"), store, auth, nil).WithInstrumentation(m)

	if _, err := l.Credential(context.Background()); err == nil {
		t.Fatal("Credential() should fail when authorization is denied")
	}

	auths := counterResults(t, reader, "oauth_auth_total")
	if auths[instrumentation.OAuthResultFailure] != 1 {
		t.Errorf("authorization failures = %d, want 1", auths[instrumentation.OAuthResultFailure])
	}
}

func TestHasCredential(t *testing.T) {
	store := testStore(t)
	l := NewLifecycle(testConfig("http://invalid.test/token"), store, nil, nil)

	if l.HasCredential() {
		t.Error("HasCredential() = true with empty store")
	}

	tok := &oauth2.Token{AccessToken: "a", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	if err := store.Save(NewRecord(tok, RequiredScopes)); err != nil {
		t.Fatal(err)
	}
	if !l.HasCredential() {
		t.Error("HasCredential() = false with persisted record")
	}
}

func TestInvalidate(t *testing.T) {
	store := testStore(t)
	tok := &oauth2.Token{AccessToken: "a", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	if err := store.Save(NewRecord(tok, RequiredScopes)); err != nil {
		t.Fatal(err)
	}

	l := NewLifecycle(testConfig("http://invalid.test/token"), store, nil, nil)
	if _, err := l.Credential(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := l.Invalidate(); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if l.HasCredential() {
		t.Error("HasCredential() = true after Invalidate")
	}
}
