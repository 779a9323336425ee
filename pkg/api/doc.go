// Package api exposes the HTTP surface of the service: a gorilla/mux router
// under /api/v1 with role-gated routes over the domain services.
//
// Route registration follows one pattern throughout: each entity gets a
// handler struct holding its service, with a RegisterRoutes method that binds
// its paths onto the shared router. Authentication runs as router middleware
// on the protected subrouter; per-route role gates wrap individual handlers.
package api
