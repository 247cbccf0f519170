package action

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/tmeadows/outboxd/internal/gmail"
	"github.com/tmeadows/outboxd/internal/instrumentation"
	"github.com/tmeadows/outboxd/internal/logging"
)

// emailPattern validates recipient addresses before any network I/O.
// Intentionally simple: it rejects obvious garbage, not every string
// that violates RFC 5322.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether addr looks like a deliverable address.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// Generator produces text for a prompt, returning empty output when
// generation is unavailable. genai.Chain is the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// SenderFactory creates the mail sender on first use. Deferring creation
// keeps credential acquisition out of process startup: commands that
// never send mail never trigger the authorization flow.
type SenderFactory func(ctx context.Context) (gmail.Sender, error)

// Service is the facade over sending, generation, and classification.
type Service struct {
	mu        sync.Mutex
	sender    gmail.Sender
	newSender SenderFactory
	generator Generator
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// NewService creates a service. generator may be nil when no generation
// provider is configured; generation-dependent operations then use their
// deterministic fallbacks.
func NewService(newSender SenderFactory, generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		newSender: newSender,
		generator: generator,
		logger:    logger,
	}
}

// WithInstrumentation attaches metrics recording to send outcomes.
func (s *Service) WithInstrumentation(metrics *instrumentation.Metrics) *Service {
	s.metrics = metrics
	return s
}

// senderForSend returns the mail sender, creating it on first use.
func (s *Service) senderForSend(ctx context.Context) (gmail.Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sender != nil {
		return s.sender, nil
	}
	if s.newSender == nil {
		return nil, fmt.Errorf("mail sending is not configured")
	}

	sender, err := s.newSender(ctx)
	if err != nil {
		return nil, err
	}
	s.sender = sender
	return sender, nil
}

// SendEmail validates the recipient and sends the email. Validation
// happens before the mail client is even initialized, so a bad address
// never costs a credential exchange or network round trip.
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) Result {
	logger := logging.WithOperation(s.logger, "send_email")

	if !ValidEmail(to) {
		logger.Warn("rejected invalid recipient",
			slog.String(logging.KeyUserHash, logging.AnonymizeEmail(to)))
		return Failure("invalid email address: %s", to)
	}
	if subject == "" {
		return Failure("subject must not be empty")
	}

	sender, err := s.senderForSend(ctx)
	if err != nil {
		logger.Error("mail client unavailable", logging.Err(err))
		return Failure("failed to initialize mail client: %v", err)
	}

	start := time.Now()
	id, err := sender.Send(ctx, &gmail.EmailMessage{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.metrics.RecordEmailSend(ctx, instrumentation.StatusError, logging.ExtractDomain(to), time.Since(start))
		logger.Error("send failed",
			slog.String(logging.KeyUserHash, logging.AnonymizeEmail(to)),
			logging.Err(err))
		return Failure("failed to send email: %v", err)
	}

	s.metrics.RecordEmailSend(ctx, instrumentation.StatusSuccess, logging.ExtractDomain(to), time.Since(start))
	logger.Info("email sent",
		slog.String(logging.KeyUserHash, logging.AnonymizeEmail(to)),
		slog.String("message_id", id),
		logging.Status(logging.StatusSuccess))
	return Sent(id, to, subject)
}

// GenerateText generates text for the prompt, returning an empty string
// when no provider produces output.
func (s *Service) GenerateText(ctx context.Context, prompt string) string {
	if s.generator == nil {
		return ""
	}
	return s.generator.Generate(ctx, prompt)
}

// ComposeAndSend generates an email body from the prompt and sends it.
// When generation fails entirely, a minimal deterministic body is sent
// instead so the email still goes out.
func (s *Service) ComposeAndSend(ctx context.Context, to, subject, prompt string) Result {
	if !ValidEmail(to) {
		return Failure("invalid email address: %s", to)
	}

	body := CleanText(s.GenerateText(ctx, prompt))
	if body == "" {
		s.logger.Warn("generation unavailable, using fallback body",
			logging.Operation("compose_email"))
		body = fmt.Sprintf("Regarding: %s", subject)
	}

	return s.SendEmail(ctx, to, subject, body)
}
