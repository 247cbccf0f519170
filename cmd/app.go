package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tmeadows/outboxd/internal/action"
	"github.com/tmeadows/outboxd/internal/config"
	"github.com/tmeadows/outboxd/internal/genai"
	"github.com/tmeadows/outboxd/internal/gmail"
	"github.com/tmeadows/outboxd/internal/google"
	"github.com/tmeadows/outboxd/internal/tools"
)

// appOptions controls how the dependency graph is assembled.
type appOptions struct {
	envFile string
	debug   bool

	// interactive enables the browser authorization flow when no usable
	// credential exists. Disabled for unattended deployments.
	interactive bool
}

// application is the wired dependency graph shared by the serve, send,
// and authorize commands.
type application struct {
	cfg       *config.Config
	logger    *slog.Logger
	lifecycle *google.Lifecycle
	chain     *genai.Chain
	service   *action.Service
	registry  *tools.Registry
}

// setupLogger installs a slog text handler on stderr. Stdout must stay
// clean because the MCP stdio transport owns it.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// buildProviders assembles the generation fallback order: Gemini first
// when configured, then OpenAI.
func buildProviders(cfg *config.Config) []genai.Provider {
	var providers []genai.Provider

	if cfg.GeminiAPIKey != "" {
		providers = append(providers, genai.NewGeminiProvider(genai.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.ProviderTimeout,
		}))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, genai.NewOpenAIProvider(genai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.ProviderTimeout,
		}))
	}

	return providers
}

// newApplication loads configuration and wires the credential lifecycle,
// mail sender, generation chain, action service, and tool registry.
func newApplication(opts appOptions) (*application, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}

	logger := setupLogger(opts.debug)

	oauthCfg, err := google.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	store := google.NewStore(cfg.TokenFile, logger)

	var auth google.Authorizer
	if opts.interactive {
		auth = google.NewFlow(oauthCfg, cfg.AuthTimeout, logger)
	}

	lifecycle := google.NewLifecycle(oauthCfg, store, auth, logger)

	// The sender is built lazily on first send so startup never blocks
	// on the authorization flow.
	factory := func(ctx context.Context) (gmail.Sender, error) {
		httpClient, err := lifecycle.HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		return gmail.NewClient(ctx, httpClient)
	}

	chain := genai.NewChain(buildProviders(cfg), cfg.ProviderTimeout, logger)
	service := action.NewService(factory, chain, logger)

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterEmailTools(registry, service); err != nil {
		return nil, fmt.Errorf("failed to register email tools: %w", err)
	}

	return &application{
		cfg:       cfg,
		logger:    logger,
		lifecycle: lifecycle,
		chain:     chain,
		service:   service,
		registry:  registry,
	}, nil
}
