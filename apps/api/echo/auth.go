package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/policy"
)

const (
	principalTokenKey = "principalToken"
	actorKey          = "actor"
)

var errNoSubject = errors.New("token has no subject")

// Claims represents the authorization claims of a JWT issued by the identity provider.
// The subject is the principal id.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

func (c Claims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if c.Subject == "" {
		return errNoSubject
	}
	return nil
}

func NewClaims(conf *core.Config, principalID, email string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.IdP.JWTIssuer,
			Subject:   principalID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: email,
	}
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.IdP.JWTSecret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    principalTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken signs claims the way the identity provider does.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	cfg := jwtConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(cfg.SigningMethod), claims)

	ss, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// authenticator holds the two auth middlewares of the API.
// required rejects requests without a valid token; optional lets them through as the anonymous actor.
type authenticator struct {
	required echo.MiddlewareFunc
	optional echo.MiddlewareFunc
}

func newAuthenticator(conf *core.Config) authenticator {
	cfg := jwtConfig(conf)
	optCfg := jwtConfig(conf)
	optCfg.Skipper = func(ctx echo.Context) bool {
		return ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
	}
	actor := actorMiddleware(conf.IdP.JWTIssuer)

	return authenticator{
		required: chain(middleware.JWTWithConfig(cfg), actor),
		optional: chain(middleware.JWTWithConfig(optCfg), actor),
	}
}

// actorMiddleware turns the verified token into the policy.Actor of the request.
func actorMiddleware(issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := ctx.Get(principalTokenKey).(*jwt.Token)
			if !ok {
				return next(ctx)
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || (issuer != "" && !claims.VerifyIssuer(issuer, true)) {
				return errInvalidToken
			}
			ctx.Set(actorKey, policy.Actor{ID: claims.Subject})
			return next(ctx)
		}
	}
}

func chain(mws ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// contextActor returns the acting principal, or the anonymous actor.
func contextActor(ctx echo.Context) policy.Actor {
	if actor, ok := ctx.Get(actorKey).(policy.Actor); ok {
		return actor
	}
	return policy.Anonymous()
}
