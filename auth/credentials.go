package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"animeHub/domain"
)

// Credentials digests passwords with bcrypt and a pepper, and issues HS256 signed
// bearer tokens whose subject is the user id.
// It implements the domain.Credentials interface.
type Credentials struct {
	pepper string
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// An Option changes a default of Credentials.
type Option func(*Credentials)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(c *Credentials) {
		c.cost = cost
	}
}

// WithClock replaces the clock tokens are issued and checked against.
func WithClock(now func() time.Time) Option {
	return func(c *Credentials) {
		c.now = now
	}
}

// NewCredentials returns Credentials using the given pepper, signing secret and token lifetime.
func NewCredentials(pepper, secret string, ttl time.Duration, opts ...Option) *Credentials {
	c := &Credentials{
		pepper: pepper,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.Credentials = &Credentials{}

// Hash appends the pepper to the password and bcrypts the result.
func (c *Credentials) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password+c.pepper), c.cost)
	if err != nil {
		return "", errors.WithMessage(err, "bcrypt")
	}
	return string(b), nil
}

// Verify reports whether the password matches the digest.
func (c *Credentials) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password+c.pepper)) == nil
}

// IssueToken returns a signed token for the user that expires after the configured lifetime.
func (c *Credentials) IssueToken(userID int) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.WithMessage(err, "sign token")
	}
	return s, nil
}

// ParseToken checks the token's signature and expiry and returns the user id it was issued for.
func (c *Credentials) ParseToken(token string) (int, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return 0, errors.WithMessage(err, "parse token")
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("parse token: invalid subject %q", claims.Subject)
	}
	return id, nil
}
