package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/internal/domain/network"
	"github.com/turtacn/MetaNet/internal/infrastructure/storage/networkfile"
)

// SampleRegistry returns a fresh copy of the bundled sample network.
func SampleRegistry(t testing.TB) *network.Registry {
	t.Helper()
	reg := network.NewRegistry()
	require.NoError(t, networkfile.NewStore(networkfile.SamplePath).Load(context.Background(), reg))
	return reg
}

// WriteNetworkFile saves reg as YAML in a per-test directory and returns the
// path.
func WriteNetworkFile(t testing.TB, reg *network.Registry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, networkfile.NewStore(path).Save(context.Background(), reg))
	return path
}
