// Package http provides HTTP handlers and middleware for the reminder API.
//
// The router exposes the following endpoints:
//   - POST /auth/register: creates an account and issues a session token. Body:
//     {"name","email","password"}. Response: {"token","expires_at","user"} with the
//     token also surfaced via the `X-Session-Token` header and a `session_token`
//     cookie.
//   - POST /auth/login: authenticates an existing account and issues a session
//     token with the same response shape as registration.
//   - POST /auth/refresh: rotates the current session token. The old token stops
//     working immediately; the fresh token and expiry come back in the body.
//   - POST /auth/logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears
//     the cookie.
//   - GET /auth/me: returns the authenticated user's profile.
//   - GET /contacts, POST /contacts, GET /contacts/{id}, PUT /contacts/{id},
//     DELETE /contacts/{id}: contact management endpoints exchanging the
//     `contactDTO` payload defined in contact_handler.go. Fetching a single
//     contact also returns its events ordered by next occurrence. Deleting a
//     contact deletes its events with it.
//   - GET /events, POST /events, PUT /events/{id}, DELETE /events/{id}: event
//     management endpoints exchanging the `eventDTO` payload defined in
//     event_handler.go. Listings return `eventViewDTO` entries that pair each
//     event with its contact and the days remaining until the next occurrence.
//   - GET /events/today: events whose next occurrence falls on the current day.
//   - GET /events/upcoming: events occurring within the next thirty days.
//   - GET /templates, POST /templates, DELETE /templates/{id}: greeting template
//     endpoints exchanging the `templateDTO` payload defined in
//     template_handler.go. Listing accepts optional `category` and `event_type`
//     query parameters. Built-in system templates cannot be deleted.
//   - POST /wishes/generate: renders a greeting message for an event using a
//     chosen template. Body: {"event_id","template_id"}.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
