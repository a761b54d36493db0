// Package httputil holds the JSON response helpers and middleware shared by
// the development server.
//
// Responses:
//
//	httputil.WriteJSON(w, http.StatusOK, graph)
//	httputil.WriteNotFoundError(w, "no such asset")
//
// Middleware, outermost first:
//
//	handler := httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//	)(router)
//
// RequestIDMiddleware keeps an incoming X-Request-ID or generates a UUID and
// stores it in the request context, where observability.FromContext picks it
// up.
package httputil
