package handlers

import (
	"net/http"
	"strings"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	gorilla "github.com/gorilla/handlers"
)

func UseCors(h http.Handler) http.Handler {
	return gorilla.CORS(gorilla.AllowedOrigins([]string{"*"}))(h)
}

func UseCompress(h http.Handler) http.Handler {
	return gorilla.CompressHandler(h)
}

func UseJson(h http.Handler) http.Handler {
	// Only PUT, POST, and PATCH requests are considered.
	return gorilla.ContentTypeHandler(h, "application/json")
}

// UseAuth resolves the caller from the Authorization header and stores
// it in the request context. Requests without a resolvable caller are
// rejected here, before any handler runs.
func UseAuth(service *auth.Service) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			credential := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

			caller, err := service.Resolve(credential)
			if err != nil {
				handleError(rw, r, err)
				return
			}

			h.ServeHTTP(rw, r.WithContext(auth.WithCaller(r.Context(), caller)))
		})
	}
}

// callerFromRequest returns the caller UseAuth resolved earlier. A
// request that bypassed the middleware yields a rejected caller.
func callerFromRequest(r *http.Request) auth.Caller {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return auth.Caller{Kind: auth.Rejected}
	}
	return caller
}
