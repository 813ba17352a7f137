package middleware

import (
	"context"
	"strings"

	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/router"
	"github.com/venuelab/backend/pkg/xcontext"
)

// HandleAuth resolves the request user from the Authorization header or the
// access token cookie. Requests without a credential pass through anonymous;
// endpoints that need an identity stack Authenticate on top.
func HandleAuth() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		token := extractToken(ctx)
		if token == "" {
			return nil, nil
		}

		accessToken, err := xcontext.TokenEngine(ctx).Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		return xcontext.WithRequestUserID(ctx, accessToken.ID), nil
	}
}

func Authenticate() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestUserID(ctx) == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		return nil, nil
	}
}

func extractToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	if authorization := req.Header.Get("Authorization"); authorization != "" {
		token, found := strings.CutPrefix(authorization, "Bearer ")
		if found {
			return token
		}
	}

	cookieName := xcontext.Configs(ctx).Auth.AccessToken.Name
	if cookieName != "" {
		if cookie, err := req.Cookie(cookieName); err == nil {
			return cookie.Value
		}
	}

	return ""
}
