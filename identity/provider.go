// Package identity signs shoppers up and in. Passwords are stored as bcrypt
// hashes; a signed-in identity is kept as a bearer token in a durable slot so
// it survives between invocations.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"minimarket/domain"
	"minimarket/slot"
	"minimarket/util"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const minPasswordLength = 6

// Provider is the session identity provider
type Provider struct {
	users   domain.UserStore
	tokens  *TokenManager
	session slot.Slot
	limiter *rate.Limiter
	logger  *slog.Logger
	cost    int
}

// Option configures a Provider
type Option func(*Provider)

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLoginRate limits login attempts to perSecond with a burst of the same size.
// perSecond <= 0 disables throttling.
func WithLoginRate(perSecond float64) Option {
	return func(p *Provider) {
		if perSecond <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) {
		p.cost = cost
	}
}

func NewProvider(users domain.UserStore, tokens *TokenManager, session slot.Slot, opts ...Option) *Provider {
	p := &Provider{
		users:   users,
		tokens:  tokens,
		session: session,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  slog.Default(),
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Signup creates an account and signs it in.
func (p *Provider) Signup(ctx context.Context, name, email, password string) (domain.Identity, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateSignup(name, email, password); err != nil {
		return domain.Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return domain.Identity{}, err
	}
	user := domain.User{
		ID:           util.NewUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		if domain.IsDuplicateEmailError(err) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, domain.NewNetworkError(err)
	}

	id := user.Identity()
	if err := p.remember(ctx, id); err != nil {
		return domain.Identity{}, err
	}
	p.logger.Info("account created", "identity_id", id.ID)
	return id, nil
}

func validateSignup(name, email, password string) error {
	var fields []domain.FieldError
	if name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Reason: "is required"})
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields = append(fields, domain.FieldError{Field: "email", Reason: "must be a valid email address"})
	}
	if len(password) < minPasswordLength {
		fields = append(fields, domain.FieldError{Field: "password", Reason: "must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

// Login verifies credentials and signs the account in. Unknown emails and wrong
// passwords both fail with InvalidCredentialsError.
func (p *Provider) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.Identity{}, err
	}

	email = normalizeEmail(email)
	user, err := p.users.FindUserByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFoundError(err) {
			p.logger.Debug("login rejected", "reason", "unknown email")
			return domain.Identity{}, domain.NewInvalidCredentialsError()
		}
		return domain.Identity{}, domain.NewNetworkError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			p.logger.Debug("login rejected", "identity_id", user.ID, "reason", "password mismatch")
			return domain.Identity{}, domain.NewInvalidCredentialsError()
		}
		return domain.Identity{}, err
	}

	id := user.Identity()
	if err := p.remember(ctx, id); err != nil {
		return domain.Identity{}, err
	}
	p.logger.Info("signed in", "identity_id", id.ID)
	return id, nil
}

// Logout forgets the signed-in identity.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.session.Clear(ctx); err != nil {
		p.logger.Warn("session clear failed", "slot", "session", "error", err)
	}
}

// Current returns the signed-in identity, or nil when there is none. An expired
// or tampered token is discarded.
func (p *Provider) Current(ctx context.Context) *domain.Identity {
	token, ok := p.Token(ctx)
	if !ok {
		return nil
	}
	id, err := p.tokens.Validate(token)
	if err != nil {
		p.logger.Info("discarding session token", "error", err)
		p.Logout(ctx)
		return nil
	}
	return &id
}

// Token returns the stored bearer credential, if any.
func (p *Provider) Token(ctx context.Context) (string, bool) {
	b, ok, err := p.session.Load(ctx)
	if err != nil {
		p.logger.Warn("session load failed", "slot", "session", "error", err)
		return "", false
	}
	token := strings.TrimSpace(string(b))
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (p *Provider) remember(ctx context.Context, id domain.Identity) error {
	token, err := p.tokens.Issue(id)
	if err != nil {
		return err
	}
	if err := p.session.Save(ctx, []byte(token)); err != nil {
		p.logger.Warn("session save failed", "slot", "session", "error", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
