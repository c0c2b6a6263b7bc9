package jwtprovider

import (
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-authgate"
)

// Config configures token validation.
type Config struct {
	// Issuer is the expected "iss" claim.
	Issuer string

	// Audience lists accepted "aud" values. Empty accepts any audience.
	Audience []string

	// SigningKey is a shared HMAC secret used when the token has no kid.
	SigningKey string

	// SigningKeys maps kid to HMAC secret.
	SigningKeys map[string]string

	// SigningMethod is the expected algorithm for given keys.
	// Default: HS256.
	SigningMethod string

	// JWKSURL loads verification keys from a JWK Set. It takes precedence
	// over given keys.
	JWKSURL string

	// RefreshInterval controls how often the JWK Set is refreshed.
	// Default: 1 hour.
	RefreshInterval time.Duration

	// Leeway tolerates clock skew on time based claims.
	Leeway time.Duration
}

// FromProviderConfig maps the package level provider settings.
func FromProviderConfig(cfg authgate.ProviderConfig) Config {
	return Config{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		SigningKey: cfg.SigningKey,
		JWKSURL:    cfg.JWKSURL,
	}
}

// Claims are the claims read from identity tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// TokenValidator turns a raw token into an identity.
type TokenValidator interface {
	Validate(token string) (*authgate.Identity, error)
}

// Validator validates identity tokens.
type Validator struct {
	cfg     Config
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

var _ TokenValidator = (*Validator)(nil)

// NewValidator builds a validator from cfg.
func NewValidator(cfg Config) (*Validator, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("jwtprovider: issuer is required")
	}

	if cfg.SigningMethod == "" {
		cfg.SigningMethod = jwt.SigningMethodHS256.Alg()
	}

	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Hour
	}

	v := &Validator{cfg: cfg}

	parserOpts := []jwt.ParserOption{
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(cfg.Leeway))
	}

	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   cfg.RefreshInterval,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("jwtprovider: failed to load JWK Set: %w", err)
		}
		v.jwks = jwks
		v.keyFunc = jwks.Keyfunc
	case len(cfg.SigningKeys) > 0:
		given := make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
		for kid, secret := range cfg.SigningKeys {
			given[kid] = keyfunc.NewGivenCustom([]byte(secret), keyfunc.GivenKeyOptions{
				Algorithm: cfg.SigningMethod,
			})
		}
		v.keyFunc = v.withFallback(keyfunc.NewGiven(given).Keyfunc)
		parserOpts = append(parserOpts, jwt.WithValidMethods([]string{cfg.SigningMethod}))
	case cfg.SigningKey != "":
		v.keyFunc = v.sharedKey
		parserOpts = append(parserOpts, jwt.WithValidMethods([]string{cfg.SigningMethod}))
	default:
		return nil, fmt.Errorf("jwtprovider: a signing key or JWK Set URL is required")
	}

	v.parser = jwt.NewParser(parserOpts...)
	return v, nil
}

// Validate parses token and maps its claims to an identity.
func (v *Validator) Validate(token string) (*authgate.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", authgate.ErrInvalidCredential)
	}

	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", authgate.ErrInvalidCredential, err)
	}

	if !v.audienceAllowed(claims.Audience) {
		return nil, fmt.Errorf("%w: audience not accepted", authgate.ErrInvalidCredential)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", authgate.ErrInvalidCredential)
	}

	return &authgate.Identity{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// Close stops the JWK Set refresh goroutine, if any.
func (v *Validator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func (v *Validator) audienceAllowed(aud jwt.ClaimStrings) bool {
	if len(v.cfg.Audience) == 0 {
		return true
	}
	for _, want := range v.cfg.Audience {
		for _, got := range aud {
			if want == got {
				return true
			}
		}
	}
	return false
}

func (v *Validator) sharedKey(t *jwt.Token) (any, error) {
	if t.Method.Alg() != v.cfg.SigningMethod {
		return nil, fmt.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
	}
	return []byte(v.cfg.SigningKey), nil
}

// withFallback uses the shared key for tokens without a kid.
func (v *Validator) withFallback(kf jwt.Keyfunc) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Header["kid"]; !ok && v.cfg.SigningKey != "" {
			return v.sharedKey(t)
		}
		return kf(t)
	}
}
