package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeNetwork(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
