package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeCommandHelp(t *testing.T) {
	output, err := execute(t, "serve", "--help")
	require.NoError(t, err)
	require.Contains(t, output, "Start the places HTTP server")
}

func TestServeCommandFlags(t *testing.T) {
	serve := findCommand(t, newRootCommand(), "serve")

	host := serve.Flags().Lookup("host")
	require.NotNil(t, host)
	require.Equal(t, "", host.DefValue)

	port := serve.Flags().Lookup("port")
	require.NotNil(t, port)
	require.Equal(t, "0", port.DefValue)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "serve")
	require.ErrorContains(t, err, "DATABASE_URL is required")
}
