package installer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveEnvStep_WritesEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ELVA_RUNTIME_PATH", dir)

	state := NewInstallState()
	state.EnvVars["MONGO_URL"] = "mongodb://localhost:27017"
	state.EnvVars["DB_NAME"] = "elva"
	state.EnvVars["REDIS_URL"] = "redis://localhost:6379"

	step := &SaveEnvStep{}
	next, _ := step.Update(nil, state, 80, 24)
	if next != nil {
		t.Fatalf("expected the step to complete, got err=%v", step.err)
	}

	envPath := filepath.Join(dir, ".env")
	info, err := os.Stat(envPath)
	if err != nil {
		t.Fatalf("expected .env to exist: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("file permissions = %o, want 0600", mode)
	}

	data, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("failed to read .env: %v", err)
	}
	content := string(data)
	for _, line := range []string{
		"MONGO_URL=mongodb://localhost:27017",
		"DB_NAME=elva",
		"REDIS_URL=redis://localhost:6379",
	} {
		if !strings.Contains(content, line+"\n") {
			t.Errorf("expected line %q in .env, got:\n%s", line, content)
		}
	}
}

func TestSaveEnvStep_RefusesExistingEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ELVA_RUNTIME_PATH", dir)

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("MONGO_URL=keep-me\n"), 0600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	step := &SaveEnvStep{}
	next, _ := step.Update(nil, NewInstallState(), 80, 24)
	if next == nil {
		t.Fatal("expected the step to stay on the error screen")
	}
	if step.err == nil {
		t.Fatal("expected an error for an existing .env")
	}

	data, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("failed to read .env: %v", err)
	}
	if string(data) != "MONGO_URL=keep-me\n" {
		t.Error("existing .env must not be overwritten")
	}
}
