package testutil

import "net/http"

// WithBearer sets the Authorization header for requests that travel through
// the real auth middleware.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
