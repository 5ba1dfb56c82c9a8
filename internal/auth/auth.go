package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

const minPasswordLength = 8

// Service handles account registration and login. Tokens are self-contained:
// "<userID>.<expiryUnix>.<hmac>" signed with the server secret, so requests
// can be authenticated without a database round trip.
type Service struct {
	users  ports.UserStore
	secret []byte
	ttl    time.Duration
}

func NewService(users ports.UserStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:          email,
		HashedPassword: string(hashed),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords produce the same error so the endpoint does not leak which
// accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.ErrUserNotFound) {
			return "", nil, domain.WrapError(domain.ErrUnauthorized, "login", errors.New("bad credentials"))
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", nil, domain.WrapError(domain.ErrUnauthorized, "login", errors.New("bad credentials"))
	}

	token := s.issueToken(user.ID, time.Now().Add(s.ttl))
	return token, user, nil
}

func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateCredentials(email, newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, email, string(hashed))
}

// VerifyToken returns the user id carried by a valid, unexpired token.
func (s *Service) VerifyToken(token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("malformed token"))
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("malformed token"))
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("malformed token"))
	}

	expected := s.sign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return 0, domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("bad signature"))
	}
	if time.Now().Unix() >= expiry {
		return 0, domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("token expired"))
	}
	return userID, nil
}

func (s *Service) issueToken(userID int64, expiry time.Time) string {
	payload := strconv.FormatInt(userID, 10) + "." + strconv.FormatInt(expiry.Unix(), 10)
	return payload + "." + s.sign(payload)
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") || email == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate credentials", errors.New("invalid email"))
	}
	if len(password) < minPasswordLength {
		return domain.WrapError(domain.ErrInvalidInput, "validate credentials",
			fmt.Errorf("password shorter than %d characters", minPasswordLength))
	}
	return nil
}
