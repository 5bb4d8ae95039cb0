package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid indicates a malformed token or failed signature check.
	ErrTokenInvalid = errors.New("security: invalid token")
	// ErrTokenExpired indicates the token's validity window has elapsed.
	ErrTokenExpired = errors.New("security: token expired")
)

const defaultAccessTokenTTL = 24 * time.Hour

// AccessTokenClaims is the fixed claims structure embedded in issued tokens.
// The claims set is deliberately closed: subject id and a single role, no
// open-ended map, so verification stays exhaustive.
type AccessTokenClaims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner creates and verifies signed, time-bounded identity tokens.
// Tokens are stateless: there is no server-side record of issued tokens and
// therefore no revocation before natural expiry.
type TokenSigner struct {
	keyProvider KeyProvider
	issuer      string
	ttl         time.Duration
	leeway      time.Duration
	now         func() time.Time
}

// NewTokenSigner constructs a TokenSigner. A non-positive ttl falls back to
// the 24h default.
func NewTokenSigner(provider KeyProvider, issuer string, ttl time.Duration) (*TokenSigner, error) {
	if provider == nil {
		return nil, errors.New("security: key provider is required")
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("security: issuer is required")
	}
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}

	return &TokenSigner{
		keyProvider: provider,
		issuer:      issuer,
		ttl:         ttl,
		leeway:      5 * time.Second,
		now:         time.Now,
	}, nil
}

// TTL returns the validity window applied to issued tokens.
func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}

// WithClock overrides the clock, primarily for tests.
func (s *TokenSigner) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue signs a token for the subject with the supplied role claim and
// returns the compact token along with its expiry instant.
func (s *TokenSigner) Issue(userID int64, role string) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, fmt.Errorf("security: user id is required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyProvider.SigningKID()

	signingKey, err := s.keyProvider.GetSigningKey()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("get signing key: %w", err)
	}

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses and validates a compact token. Malformed, tampered, and
// expired tokens all fail closed; callers at the transport boundary must
// treat every failure identically as unauthenticated.
func (s *TokenSigner) Verify(token string) (*AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}

		return s.keyProvider.GetVerificationKey(kid)
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
