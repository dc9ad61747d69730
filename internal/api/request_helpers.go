// Package api contains the HTTP handlers for the task panel.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskpanel/internal/api/shared"
	"taskpanel/internal/domain"
)

// maxRequestBody caps request payloads. Uploaded message lists can be
// sizable, so the limit is generous.
const maxRequestBody = 10 << 20 // 10 MiB

// DecodeJSON decodes the request body into v, rejecting oversized
// bodies and trailing garbage.
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON payload")
	}
	return nil
}

// requirePrincipal extracts the authenticated principal, writing a 401
// when the middleware never ran. The boolean reports success.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
		return domain.Principal{}, false
	}
	return principal, true
}
