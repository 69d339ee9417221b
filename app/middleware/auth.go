package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/factory"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/types"
)

const userIDContextKey = "auth_user_id"

// JWTAuth verifies the bearer token on API routes. The webhook route is
// registered outside the protected group; the gateway does not authenticate.
type JWTAuth struct {
	secret []byte
	logger logrus.FieldLogger
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{
		secret: []byte(secret),
		logger: factory.NewModuleLogger("auth-middleware"),
	}
}

func (a *JWTAuth) RequireToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "missing bearer token"})
			}

			tokenRaw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenRaw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return a.secret, nil
			})
			if err != nil || !token.Valid {
				factory.LoggerWithContext(a.logger, ctx).WithError(err).Debug("Token rejected")
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "invalid token"})
			}

			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				ctx.Set(userIDContextKey, sub)
			}

			return next(ctx)
		}
	}
}

// UserIDFromContext returns the authenticated subject, when the request
// carried one.
func UserIDFromContext(ctx echo.Context) string {
	if v, ok := ctx.Get(userIDContextKey).(string); ok {
		return v
	}
	return ""
}
