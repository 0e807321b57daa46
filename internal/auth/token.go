package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/folio/folio/internal/model"
)

// SigningMethod is the only algorithm accepted or produced.
var SigningMethod = jwt.SigningMethodHS256

// Claims are the JWT claims carried by a bearer token.
type Claims struct {
	Username string `json:"username,omitempty"`
	// LegacyID is the user id claim used by tokens from the previous backend.
	// It may be a JSON number.
	LegacyID any `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// VerifierConfig configures a Verifier.
type VerifierConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Verifier issues and verifies signed, time-bound bearer tokens.
// It is safe for concurrent use and holds no mutable state.
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifier creates a Verifier from startup configuration.
func NewVerifier(cfg VerifierConfig) *Verifier {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{SigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    now,
		parser: jwt.NewParser(opts...),
	}
}

// Issue signs a token for user and returns it with the Caller it encodes.
func (v *Verifier) Issue(user *model.User) (string, *model.Caller, error) {
	issuedAt := v.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(v.ttl)

	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   CanonicalID(user.ID),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(SigningMethod, claims).SignedString(v.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &model.Caller{
		ID:        claims.Subject,
		Username:  user.Username,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature and expiry of raw and rebuilds the Caller from its claims.
// raw is used exactly as received; no scheme prefix is stripped.
func (v *Verifier) Verify(raw string) (*model.Caller, error) {
	if raw == "" {
		return nil, &AuthenticationError{Reason: ReasonMissing}
	}

	var claims Claims
	token, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, &AuthenticationError{Reason: ReasonInvalid, Cause: mapJWTError(err)}
	}
	if !token.Valid {
		return nil, &AuthenticationError{Reason: ReasonInvalid, Cause: errors.New("token is not valid")}
	}

	id := CanonicalID(claims.Subject)
	if id == "" {
		id = CanonicalID(claims.LegacyID)
	}
	if id == "" {
		return nil, &AuthenticationError{Reason: ReasonInvalid, Cause: errors.New("token has no subject")}
	}

	caller := &model.Caller{ID: id, Username: claims.Username}
	if claims.IssuedAt != nil {
		caller.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		caller.ExpiresAt = claims.ExpiresAt.Time
	}
	return caller, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.New("token expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.New("token signature invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.New("token malformed")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.New("token unverifiable")
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return errors.New("token missing required claim")
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return errors.New("token used before issued")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return errors.New("token issuer invalid")
	default:
		return err
	}
}
