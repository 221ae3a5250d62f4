package csrf

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// Audience is the aud claim of every state token.
const Audience = "github-oauth-state"

const keyInfo = "githubauth csrf state v1"

var (
	ErrStateMissing  = errors.New("csrf: state is missing")
	ErrStateInvalid  = errors.New("csrf: state is invalid")
	ErrStateExpired  = errors.New("csrf: state expired")
	ErrStateReplayed = errors.New("csrf: state already used or unknown")
)

// Claims is what a verified state carries back to the host.
type Claims struct {
	ID        string
	ReturnTo  string
	ExpiresAt time.Time
}

type stateClaims struct {
	ReturnTo string `json:"rt,omitempty"`
	jwtv5.RegisteredClaims
}

type Options struct {
	// Secret seeds the HMAC key; the key itself is derived with HKDF-SHA256.
	Secret []byte
	Issuer string
	TTL    time.Duration
	Store  Store
	Now    func() time.Time
}

type Manager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

func NewManager(o Options) (*Manager, error) {
	if len(o.Secret) == 0 {
		return nil, errors.New("csrf: empty secret")
	}
	if o.Store == nil {
		return nil, errors.New("csrf: nil store")
	}
	if o.TTL <= 0 {
		o.TTL = 10 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Issuer == "" {
		o.Issuer = "githubauth"
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, o.Secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("csrf: derive key: %w", err)
	}

	return &Manager{key: key, issuer: o.Issuer, ttl: o.TTL, store: o.Store, now: o.Now}, nil
}

// Generate issues a new state and records its id.
func (m *Manager) Generate(ctx context.Context, returnTo string) (string, error) {
	now := m.now().UTC()
	id := uuid.NewString()

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, stateClaims{
		ReturnTo: returnTo,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        id,
			Issuer:    m.issuer,
			Audience:  jwtv5.ClaimStrings{Audience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := tok.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("csrf: sign state: %w", err)
	}
	if err := m.store.Put(ctx, id, m.ttl); err != nil {
		return "", fmt.Errorf("csrf: store state: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry, then consumes the id. A state passes
// Verify at most once.
func (m *Manager) Verify(ctx context.Context, state string) (*Claims, error) {
	if state == "" {
		return nil, ErrStateMissing
	}

	var sc stateClaims
	_, err := jwtv5.ParseWithClaims(state, &sc, func(*jwtv5.Token) (any, error) { return m.key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(m.issuer),
		jwtv5.WithAudience(Audience),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrStateExpired
		}
		return nil, ErrStateInvalid
	}
	if sc.ID == "" {
		return nil, ErrStateInvalid
	}

	ok, err := m.store.Consume(ctx, sc.ID)
	if err != nil {
		return nil, fmt.Errorf("csrf: consume state: %w", err)
	}
	if !ok {
		return nil, ErrStateReplayed
	}

	return &Claims{ID: sc.ID, ReturnTo: sc.ReturnTo, ExpiresAt: sc.ExpiresAt.Time}, nil
}
