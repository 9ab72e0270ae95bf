package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"webstudio/internal/models"
	"webstudio/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// AuthConfig configures an AuthService.
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	AdminEmails   []string
	// Latency simulates the credential round trip of login and register.
	Latency   time.Duration
	Providers []IdentityProvider
	Now       func() time.Time
}

// AuthService owns the identity of the current session.
// The session is either anonymous or authenticated; there are no other states.
type AuthService struct {
	identityRepo  repositories.IdentityRepository
	limiter       *RateLimiter
	providers     map[string]IdentityProvider
	jwtSecret     []byte
	tokenDuration time.Duration
	adminEmails   map[string]bool
	latency       time.Duration
	now           func() time.Time

	current  *models.User
	inFlight atomic.Int32
	mu       sync.RWMutex
}

// NewAuthService creates a new AuthService. limiter may be nil to disable rate limiting.
func NewAuthService(identityRepo repositories.IdentityRepository, limiter *RateLimiter, cfg AuthConfig) *AuthService {
	s := &AuthService{
		identityRepo:  identityRepo,
		limiter:       limiter,
		providers:     make(map[string]IdentityProvider),
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenDuration: cfg.TokenDuration,
		adminEmails:   make(map[string]bool),
		latency:       cfg.Latency,
		now:           cfg.Now,
	}
	if s.tokenDuration <= 0 {
		s.tokenDuration = 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, p := range cfg.Providers {
		s.providers[p.Name()] = p
	}
	for _, e := range cfg.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			s.adminEmails[e] = true
		}
	}
	return s
}

// Restore reloads the persisted identity. A missing or unreadable record
// leaves the session anonymous.
func (s *AuthService) Restore() {
	user, err := s.identityRepo.Load()
	if err != nil {
		log.Printf("Failed to restore identity, continuing anonymous: %v", err)
		user = nil
	}
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
	if user != nil {
		log.Printf("Restored session for %s", user.Email)
	}
}

// CurrentUser returns a copy of the authenticated user, if any.
func (s *AuthService) CurrentUser() (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	u := *s.current
	return &u, true
}

// IsLoading reports whether a login or registration is in flight.
func (s *AuthService) IsLoading() bool {
	return s.inFlight.Load() > 0
}

func (s *AuthService) guard(action string) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Guard(action)
}

// Login signs in with email and password. Any non-empty pair is accepted;
// the same email always yields the same user ID.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.guard(ActionLogin); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrAuthentication
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if err := sleepContext(ctx, s.latency); err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:        identityID("mailto", email),
		Email:     email,
		Name:      nameFromEmail(email),
		Role:      s.roleFor(email),
		CreatedAt: now,
		LastLogin: now,
	}
	return s.establish(user)
}

// Register creates a new customer identity and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if err := s.guard(ActionRegister); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", ErrAuthentication)
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if err := sleepContext(ctx, s.latency); err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      models.RoleCustomer,
		CreatedAt: now,
		LastLogin: now,
	}
	return s.establish(user)
}

// LoginWithGoogle signs in through the Google provider.
func (s *AuthService) LoginWithGoogle(ctx context.Context) (*models.User, error) {
	return s.LoginWithProvider(ctx, ProviderGoogle)
}

// LoginWithApple signs in through the Apple provider.
func (s *AuthService) LoginWithApple(ctx context.Context) (*models.User, error) {
	return s.LoginWithProvider(ctx, ProviderApple)
}

// LoginWithProvider signs in through the named identity provider.
func (s *AuthService) LoginWithProvider(ctx context.Context, name string) (*models.User, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	ident, err := p.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s sign-in failed: %w", name, err)
	}

	now := s.now()
	user := &models.User{
		ID:        identityID(name, ident.Subject),
		Email:     ident.Email,
		Name:      ident.Name,
		Role:      s.roleFor(ident.Email),
		CreatedAt: now,
		LastLogin: now,
		Avatar:    ident.Avatar,
	}
	return s.establish(user)
}

// establish persists user and makes it the session identity.
// A returning identity keeps its original creation time.
func (s *AuthService) establish(user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, err := s.identityRepo.Load(); err == nil && prev != nil && prev.ID == user.ID {
		user.CreatedAt = prev.CreatedAt
	}
	if err := s.identityRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to persist identity: %w", err)
	}
	s.current = user
	log.Printf("User %s signed in as %s", user.Email, user.Role)

	u := *user
	return &u, nil
}

// Logout clears the session identity. Calling it while anonymous is a no-op.
func (s *AuthService) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.identityRepo.Clear(); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     s.now().Add(s.tokenDuration).Unix(),
		"iat":     s.now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// SessionUser resolves a token to the current session identity.
// Tokens of a user that has since logged out are rejected.
func (s *AuthService) SessionUser(tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, ok := s.CurrentUser()
	if !ok {
		return nil, ErrAuthenticationRequired
	}
	if id, _ := claims["user_id"].(string); id != user.ID {
		return nil, ErrAuthenticationRequired
	}
	return user, nil
}

func (s *AuthService) roleFor(email string) models.Role {
	if s.adminEmails[strings.ToLower(email)] {
		return models.RoleAdmin
	}
	return models.RoleCustomer
}

func identityID(namespace, subject string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+":"+strings.ToLower(subject))).String()
}

// nameFromEmail turns "jane.doe@x.de" into "Jane Doe".
func nameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, p := range parts {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}
