package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/mrio-cli/internal/config"
)

// withConfig installs the default configuration, rooted in a temp dir, as the
// global config for the duration of the test.
func withConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	c, err := config.Load()
	require.NoError(t, err)
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}
