package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/app"
)

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// SetupAppTest creates an app for system tests. The model and, when not
// empty, the inputs are written to a temporary directory. It returns the
// app with buffers capturing its results and its debug logs.
func SetupAppTest(t *testing.T, cfg app.Config, modelHCL, inputsHCL string) (*app.App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	dir := t.TempDir()
	cfg.ModelPath = WriteFile(t, dir, "model/main.hcl", modelHCL)
	if inputsHCL != "" {
		cfg.InputsPath = WriteFile(t, dir, "inputs.hcl", inputsHCL)
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("FORMULAGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return app.NewApp(out, logs, config), out, logs
}
