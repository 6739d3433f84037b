package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actorflow/partc/internal/testutil"
	"github.com/actorflow/partc/pipeline"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestClassifyCmd_PrintsKinds(t *testing.T) {
	// GIVEN the chain network where only F carries a partition attribute
	path := testutil.TestdataPath(t, "chain.yaml")

	// WHEN classify runs
	out := execute(t, "classify", "--log", "error", "--network", path)

	// THEN unannotated instances are reported as any
	assert.Equal(t, "S\tany\nF\thw\nD\tany\n", out)
}

func TestProfileCmd_PrintsCostModel(t *testing.T) {
	out := execute(t, "profile", "--log", "error",
		"--network", testutil.TestdataPath(t, "chain.yaml"),
		"--profile-path", testutil.TestdataPath(t, "chain.xml"))

	assert.Contains(t, out, "F\t12 ticks\n")
	assert.Contains(t, out, "S.out -> F.in\t1,024\n")
	assert.Contains(t, out, "total\t20 ticks\n")
}

func TestPartitionCmd_WritesDescriptor(t *testing.T) {
	// GIVEN the profile strategy with partition 0 on hw
	descriptor := filepath.Join(t.TempDir(), "partitions.yaml")

	// WHEN partition runs
	out := execute(t, "partition", "--log", "error",
		"--network", testutil.TestdataPath(t, "chain.yaml"),
		"--strategy", "profile",
		"--profile-path", testutil.TestdataPath(t, "chain.xml"),
		"--num-cores", "2",
		"--partition-kinds", "hw,sw",
		"--config-path", descriptor)

	// THEN the split and the makespan are printed and the descriptor exists
	assert.Contains(t, out, "hw: F\n")
	assert.Contains(t, out, "sw: S, D\n")
	assert.Contains(t, out, "makespan: 12 ticks (optimal)\n")
	_, err := os.Stat(descriptor)
	require.NoError(t, err)
	d, err := pipeline.ReadDescriptor(descriptor)
	require.NoError(t, err)
	assert.Equal(t, "profile", d.Strategy)
}
