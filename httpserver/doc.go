// Package httpserver exposes the storage router over HTTP.
//
// The server wires a chi router with request logging, liveness/readiness
// probes, drain/undrain endpoints for load-balancer coordination, an
// optional pprof mount, and a Prometheus metrics listener on a separate
// address.
//
// # Endpoints
//
//	GET    /api/v1/immutable/{hash}       fetch immutable data
//	POST   /api/v1/immutable              store immutable data
//	DELETE /api/v1/immutable/{hash}       delete immutable data
//	GET    /api/v1/mutable/{fqid}         fetch and verify mutable data
//	POST   /api/v1/mutable/{fqid}         sign and store mutable data
//	DELETE /api/v1/mutable/{fqid}         delete mutable data
//	GET    /api/v1/announcements/{hash}   fetch announcement text
//	POST   /api/v1/announcements          store announcement text
//	GET    /livez, /readyz, /drain, /undrain
package httpserver
