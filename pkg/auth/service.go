package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/email"
	"github.com/cvboost/cvboost/pkg/logger"
	"github.com/cvboost/cvboost/pkg/token"
)

const subjectSignIn = "sign_in"

// Config holds sign-in settings loaded from the environment.
type Config struct {
	TokenSecret string        `env:"AUTH_TOKEN_SECRET,required"`
	LinkTTL     time.Duration `env:"AUTH_LINK_TTL" envDefault:"15m"`
	AppName     string        `env:"APP_NAME" envDefault:"CVBoost"`
	// BaseURL is the public origin the verification link points back to.
	BaseURL string `env:"APP_BASE_URL,required"`
}

// linkPayload is the signed content of a magic-link token.
type linkPayload struct {
	ID       string `json:"id"` // unique per link, reserved for replay tracking
	Email    string `json:"email"`
	Subject  string `json:"sub"`
	ExpireAt int64  `json:"exp"`
}

// Service handles magic-link sign-in.
type Service interface {
	// SendSignInLink emails a one-time sign-in link to the address.
	SendSignInLink(ctx context.Context, emailAddr string) error

	// Verify validates a sign-in token and returns the account record,
	// creating it on first sign-in.
	Verify(ctx context.Context, signInToken string) (*account.Record, error)
}

type service struct {
	store  account.Store
	sender email.Sender
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
}

// Option configures optional service settings.
type Option func(*service)

// WithLogger sets the service logger. Without it, logging is discarded.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the sign-in service. Panics on nil dependencies or a
// missing token secret to fail fast during initialization.
func NewService(store account.Store, sender email.Sender, cfg Config, opts ...Option) Service {
	if store == nil {
		panic("auth: account store is required")
	}
	if sender == nil {
		panic("auth: email sender is required")
	}
	if cfg.TokenSecret == "" {
		panic("auth: token secret is required")
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 15 * time.Minute
	}

	s := &service{
		store:  store,
		sender: sender,
		cfg:    cfg,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SendSignInLink(ctx context.Context, emailAddr string) error {
	addr, err := normalizeEmail(emailAddr)
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.cfg.LinkTTL)
	tok, err := token.Generate(linkPayload{
		ID:       uuid.NewString(),
		Email:    addr,
		Subject:  subjectSignIn,
		ExpireAt: expiresAt.Unix(),
	}, s.cfg.TokenSecret)
	if err != nil {
		return fmt.Errorf("failed to generate sign-in token: %w", err)
	}

	link := s.cfg.BaseURL + "/auth/verify-link?token=" + url.QueryEscape(tok)
	msg, err := email.SignInMessage(s.cfg.AppName, addr, link, formatTTL(s.cfg.LinkTTL))
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send sign-in email: %w", err)
	}

	s.log.InfoContext(ctx, "sign-in link sent", slog.String("email", addr))
	return nil
}

func (s *service) Verify(ctx context.Context, signInToken string) (*account.Record, error) {
	payload, err := token.Parse[linkPayload](signInToken, s.cfg.TokenSecret)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if payload.Subject != subjectSignIn {
		return nil, ErrTokenInvalid
	}
	now := s.now()
	if now.Unix() > payload.ExpireAt {
		return nil, ErrTokenExpired
	}

	rec, err := s.store.GetByEmail(ctx, payload.Email)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	// First sign-in: create the record. A concurrent verification of the
	// same link may win the insert; fall back to reading its record.
	rec = account.NewRecord(uuid.NewString(), payload.Email, now)
	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, account.ErrAlreadyExists) {
			return s.store.GetByEmail(ctx, payload.Email)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.InfoContext(ctx, "account created", logger.UserID(rec.UserID))
	return rec, nil
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func normalizeEmail(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if !emailRegex.MatchString(addr) {
		return "", ErrInvalidEmail
	}
	return addr, nil
}

func formatTTL(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return d.String()
}
