package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// Dev-mode identity headers, honoured only when no JWT secret is configured.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// WithActor stores the authenticated actor.
func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the actor set by the auth middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(domain.Actor)
	return a, ok
}

// Claims are the bearer token claims. Subject is the actor id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Authenticator verifies HS256 bearer tokens issued by the identity service.
type Authenticator struct {
	secret []byte
	clock  sharedDomain.Clock
}

// NewAuthenticator creates an Authenticator. An empty secret enables the
// dev-mode identity headers instead.
func NewAuthenticator(secret string, clock sharedDomain.Clock) *Authenticator {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &Authenticator{secret: []byte(secret), clock: clock}
}

// Verify parses a token into an actor.
func (a *Authenticator) Verify(token string) (domain.Actor, error) {
	if token == "" {
		return domain.Actor{}, errors.New("missing token")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(a.clock.Now),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	if !tok.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}
	return actorFrom(claims.Subject, claims.Role)
}

// Issue signs a token for actor, valid for ttl. Used by the CLI and tests.
func (a *Authenticator) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := a.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(actor.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware attaches the caller's actor to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			actor domain.Actor
			err   error
		)
		if len(a.secret) == 0 {
			actor, err = actorFrom(r.Header.Get(HeaderActorID), r.Header.Get(HeaderActorRole))
		} else {
			token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			actor, err = a.Verify(strings.TrimSpace(token))
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorEnvelope{Error: APIError{
				Code:    ErrUnauthorized.Code,
				Message: ErrUnauthorized.Message,
			}})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func actorFrom(subject, role string) (domain.Actor, error) {
	r := domain.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.IsValid() || r == domain.RoleSystem {
		return domain.Actor{}, fmt.Errorf("unsupported role %q", role)
	}
	id, err := uuid.Parse(strings.TrimSpace(subject))
	if err != nil && r != domain.RoleAdmin {
		return domain.Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	return domain.Actor{ID: id, Role: r}, nil
}
