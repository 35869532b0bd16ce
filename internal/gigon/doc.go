// Package gigon provides an HTTP client for the Gig-On collaborator API.
//
// # Overview
//
// The collaborator owns connection records between users. This package wraps
// its REST surface with typed requests and responses and maps failures onto a
// small error taxonomy that callers can branch on.
//
// # Endpoints
//
//   - GET /connections/{viewer}/{other}: records linking a pair, either orientation
//   - GET /connections/{user}: every record involving a user
//   - POST /connections: create a request (status 0)
//   - PUT /connections/{id}: accept a request (status 1)
//   - DELETE /connections/{id}: remove a record
//
// Responses use the {"results": [...]} envelope. user1_username is the
// requester, user2_username the acceptor.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Carry Authorization: Bearer <token> when a token is configured
//   - Set Accept: application/json and User-Agent: gigon/0.1
//   - Carry a fresh X-Request-ID (UUID v4) for correlation in server logs
//   - Have a 10-second timeout unless Options.Timeout says otherwise
//
// Path segments are escaped, and a base URL path prefix such as /api is kept.
//
// # Error Handling
//
//   - NetworkError: the request could not be sent or the body not read
//   - ConflictError: 409, the pair already has a record
//   - NotFoundError: 404, the target record is gone
//   - StatusError: any other 4xx/5xx
//
// Each typed error matches its sentinel (ErrNetwork, ErrConflict,
// ErrNotFound) with errors.Is. Kind returns a short label for logs.
//
// The client has no retries and no caching. Retry policy belongs to the
// caller, which re-resolves before acting again.
//
// # Testing
//
// Package gigontest serves an in-memory collaborator over httptest that
// enforces one record per unordered pair.
package gigon
