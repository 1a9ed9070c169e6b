package auth

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/id"
)

const (
	tokenIssuer   = "cineza-server"
	tokenAudience = "cineza-app"
)

// ErrInvalidToken is returned for tokens that fail decryption or any claim rule.
var ErrInvalidToken = errors.New("invalid access token")

// Claims are the decrypted contents of a v4.local access token.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Subject   string    `json:"sub"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService mints and verifies PASETO v4.local access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService builds a service from a 64-character hex key.
func NewTokenService(keyHex string, lifetime time.Duration) (*TokenService, error) {
	if err := checkKeyHex(keyHex); err != nil {
		return nil, err
	}
	raw, _ := hex.DecodeString(keyHex)
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("build symmetric key: %w", err)
	}
	if lifetime <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}
	return &TokenService{key: key, lifetime: lifetime, now: time.Now}, nil
}

// Issue returns an encrypted token for u and its expiry.
func (s *TokenService) Issue(u *domain.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.lifetime)

	jti, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", time.Time{}, err
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(u.ID)
	token.SetJti(jti)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	if err := token.Set("user_id", u.ID); err != nil {
		return "", time.Time{}, err
	}
	if err := token.Set("email", u.Email); err != nil {
		return "", time.Time{}, err
	}

	return token.V4Encrypt(s.key, nil), expires, nil
}

// Verify decrypts tokenString and checks issuer, audience and validity window.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return &claims, nil
}

// Lifetime returns how long issued tokens stay valid.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}
