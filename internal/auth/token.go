package auth

import "strings"

// BearerToken extracts the token from an Authorization header value.
// Anything other than "Bearer <token>" yields an empty string.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
