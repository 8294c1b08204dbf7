package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "http host", url: "http://auth.local"},
		{name: "https with port and path", url: "https://media.example.com:8443/api/v1"},
		{name: "missing scheme", url: "auth.local", wantErr: "must include a scheme"},
		{name: "ftp scheme", url: "ftp://auth.local", wantErr: "scheme must be http or https"},
		{name: "missing host", url: "http://", wantErr: "must include a host"},
		{name: "query", url: "http://auth.local?x=1", wantErr: "query parameters"},
		{name: "fragment", url: "http://auth.local#top", wantErr: "fragment"},
		{name: "unparseable", url: "http://[::1", wantErr: "invalid URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ServiceURL("AUTH_BASE_URL", tt.url)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
			require.ErrorContains(t, err, "AUTH_BASE_URL")

			var urlErr URLError
			require.True(t, errors.As(err, &urlErr))
			require.Equal(t, tt.url, urlErr.URL)
		})
	}
}

func TestPublicBaseURL(t *testing.T) {
	require.NoError(t, PublicBaseURL("SERVER_BASE_URL", "http://localhost:8080"))
	require.NoError(t, PublicBaseURL("SERVER_BASE_URL", "https://places.example.com/"))
	require.ErrorContains(t, PublicBaseURL("SERVER_BASE_URL", "https://places.example.com/api"), "must not contain a path")
	require.ErrorContains(t, PublicBaseURL("SERVER_BASE_URL", "https://places.example.com?x=1"), "query or fragment")
	require.ErrorContains(t, PublicBaseURL("SERVER_BASE_URL", "localhost:8080"), "scheme")
}
