package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bloodlink/bloodlink/internal/domain"
)

var tracer = otel.Tracer("auth")

// IdentifyIdentity lifts the identity resolved by the authenticating
// edge out of the forwarding headers and onto the request context.
// Requests without them stay anonymous; per-route guards decide
// whether that is acceptable.
func IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		kindHeader := c.Request().Header.Get(domain.IdentityKindHeader)
		idHeader := c.Request().Header.Get(domain.IdentityIDHeader)

		if kindHeader != "" && idHeader != "" {
			kind, err := domain.ParseIdentityKind(kindHeader)
			if err != nil {
				span.RecordError(errors.Wrap(err, "IdentifyIdentity: bad identity kind header"))
			} else {
				identity := domain.Identity{Kind: kind, ID: idHeader}
				ctx = context.WithValue(ctx, domain.IdentityCtxKey, identity)
				span.SetAttributes(attribute.String("Identity", identity.String()))
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// IdentityFrom extracts the caller identity placed by IdentifyIdentity.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(domain.IdentityCtxKey).(domain.Identity)
	return identity, ok
}
