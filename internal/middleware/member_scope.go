package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

const maxPeekBytes = 1 << 16

// MemberScope enforces that a member acts only on their own records. A
// memberId given in the query string or JSON body must equal the token
// subject; admins may name any member. The body is restored for the handler.
func MemberScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromCtx(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		if id.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}

		claimed := []string{r.URL.Query().Get("memberId")}
		if r.Body != nil && r.Body != http.NoBody {
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
			r.Body.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", "failed to read body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var peek struct {
				MemberID string `json:"memberId"`
			}
			// Malformed bodies are left for the handler's schema validation.
			if json.Unmarshal(bodyBytes, &peek) == nil {
				claimed = append(claimed, peek.MemberID)
			}
		}

		for _, c := range claimed {
			if c != "" && c != id.MemberID.String() {
				writeError(w, http.StatusForbidden, "forbidden", "memberId does not match the authenticated member")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
