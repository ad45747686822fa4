// Package features provides the HTTP client for the waypoint feature API.
//
// # Overview
//
// A feature is a named geographic record: an id, a name, an optional
// description, a GeoJSON geometry, and any number of extra properties. The
// record store (cmd/waypointd, or any server speaking the same API) owns the
// authoritative set; this package only moves records over HTTP+JSON.
//
// # Architecture
//
//   - client.go: RecordClient interface, the *Client implementation, APIError
//   - types.go: Record, Payload and the JSON codec that keeps unknown keys
//
// # Client Usage
//
//	client, err := features.NewClient("127.0.0.1:8000", 10*time.Second)
//	if err != nil {
//		return err
//	}
//
//	page, err := client.List(ctx, 0, 50)
//	rec, err := client.Create(ctx, features.Payload{Name: "Well", Geometry: g})
//	err = client.Delete(ctx, rec.ID)
//
// # API Endpoints
//
//   - GET    /api/features/?limit={n}&offset={m}: one page, server order
//   - GET    /api/features/{id}: one record
//   - POST   /api/features/: create, returns the record with its id
//   - PUT    /api/features/{id}: update, returns the record
//   - DELETE /api/features/{id}: delete, returns {"message": ...}
//
// # Request Handling
//
// Every request sets Accept and User-Agent headers plus a fresh X-Request-ID
// so client and server logs can be correlated. Bodies are JSON. The
// http.Client timeout comes from configuration.
//
// # Error Handling
//
// Any status >= 400 becomes an *APIError carrying the method, path, status
// and the body as Detail. When the body is a JSON object with a detail,
// message or error field, Detail is that field. Network failures are
// wrapped "execute request" errors. The client never retries.
//
// # Records and Properties
//
// Record decodes id (number or numeric string), name, description and
// geometry explicitly; every other key lands in Properties and is written
// back by MarshalJSON, so round-tripping a record does not lose data the
// editor does not know about.
package features
