// Package server exposes the feature store over HTTP with gin.
//
// # Endpoints
//
//	GET    /api/features/?limit=&offset=   page of records ordered by id
//	POST   /api/features/                  create, 201 with the stored record
//	GET    /api/features/:id               one record, 404 when missing
//	PUT    /api/features/:id               replace name, description, geometry
//	DELETE /api/features/:id               {"message": "Feature deleted successfully"}
//	GET    /healthz                        database and cache checks
//	GET    /metrics                        prometheus exposition
//
// Errors are JSON objects with a single "detail" field. Validation failures
// (bad limit or offset, blank name, unparsable geometry) are 422.
//
// # Middleware
//
// Every request passes through panic recovery, X-Request-ID propagation,
// a zerolog access log line, prometheus counters and a permissive CORS
// policy for browser clients.
package server
