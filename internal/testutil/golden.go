package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// TestdataPath resolves elem inside the repository's testdata directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func TestdataPath(t testing.TB, elem ...string) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(append([]string{filepath.Dir(thisFile), "..", "..", "testdata"}, elem...)...)
}

// AssertGoldenYAML compares got with testdata/golden/<name> as YAML values,
// ignoring formatting. Set UPDATE_GOLDEN=1 to rewrite the file instead.
func AssertGoldenYAML(t testing.TB, name string, got []byte) {
	t.Helper()
	path := TestdataPath(t, "golden", name)
	if os.Getenv("UPDATE_GOLDEN") != "" {
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("Failed to update golden file: %v", err)
		}
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden file: %v", err)
	}
	var want, have any
	if err := yaml.Unmarshal(data, &want); err != nil {
		t.Fatalf("Failed to parse golden file: %v", err)
	}
	if err := yaml.Unmarshal(got, &have); err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
	}
}
