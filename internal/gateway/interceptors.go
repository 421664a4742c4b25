package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"vibeclient/internal/navigation"
	"vibeclient/internal/observability"
)

// RequestInterceptor may modify an outgoing request. An error aborts it.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor sees every completed exchange. resp is nil when no
// response was received. The returned error replaces err for the caller;
// return err unchanged to pass it through.
type ResponseInterceptor func(req *http.Request, resp *Response, err error) error

// Session is the part of the session store the gateway relies on.
type Session interface {
	Token() string
	ClearAuth(ctx context.Context) error
}

type publicKey struct{}

func withPublic(ctx context.Context) context.Context {
	return context.WithValue(ctx, publicKey{}, true)
}

func isPublic(ctx context.Context) bool {
	v, _ := ctx.Value(publicKey{}).(bool)
	return v
}

// BearerAuth attaches the session token to every non-public request.
// Requests made while signed out go out unauthenticated.
func BearerAuth(session Session) RequestInterceptor {
	return func(req *http.Request) error {
		if isPublic(req.Context()) {
			return nil
		}
		if token := session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// InvalidateOnUnauthorized tears the session down on any 401 and sends the
// user to the sign-in page unless they are already on an auth page. The 401
// itself is still returned to the caller.
func InvalidateOnUnauthorized(session Session, nav navigation.Navigator) ResponseInterceptor {
	log := observability.NewComponentLogger("gateway")

	return func(req *http.Request, resp *Response, err error) error {
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			return err
		}

		// The request context may already be past its deadline.
		ctx := context.WithoutCancel(req.Context())
		log.Warn(ctx, "credential rejected, clearing session",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
		)
		observability.SessionInvalidations.Inc()

		if clearErr := session.ClearAuth(ctx); clearErr != nil {
			log.Error(ctx, clearErr, "failed to clear session after 401")
		}
		if nav != nil && !navigation.IsAuthEntry(nav.Location()) {
			nav.Navigate(navigation.SignInPath)
		}
		return err
	}
}
