package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Test environment variable keys.
const (
	testEnvConfigPath    = "CONFIG_PATH"
	testEnvStorage       = "STORAGE_DRIVER"
	testEnvPostgresDSN   = "POSTGRES_DSN"
	testEnvLLMAPIKey     = "LLM_API_KEY"
	testEnvLLMModel      = "LLM_MODEL"
	testEnvOpenAIAPIKey  = "OPENAI_API_KEY"
	testEnvDiaryModel    = "DIARY_MODEL_NAME"
	testEnvDiaryStrict   = "DIARY_STRICT_LLM"
	testEnvStrictLLM     = "STRICT_LLM"
	testErrLoad          = "Load() error = %v"
	testDefaultEnv       = "local"
	testDefaultModel     = "gpt-4o-mini"
	testDefaultPreset    = "warm"
	testOverlayModelName = "gpt-4.1-mini"
)

// isolateEnv clears variables that a developer .env might set.
func isolateEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"APP_ENV", testEnvLLMAPIKey, testEnvLLMModel, testEnvOpenAIAPIKey, testEnvDiaryModel,
		testEnvDiaryStrict, testEnvStrictLLM, testEnvStorage, testEnvPostgresDSN,
		"ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	t.Setenv(testEnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != testDefaultEnv {
		t.Errorf("AppEnv default = %q, want %q", cfg.AppEnv, testDefaultEnv)
	}

	if cfg.LLMModel != testDefaultModel {
		t.Errorf("LLMModel default = %q, want %q", cfg.LLMModel, testDefaultModel)
	}

	if cfg.DefaultPreset != testDefaultPreset {
		t.Errorf("DefaultPreset default = %q, want %q", cfg.DefaultPreset, testDefaultPreset)
	}

	if cfg.StorageDriver != StorageNone {
		t.Errorf("StorageDriver default = %q, want %q", cfg.StorageDriver, StorageNone)
	}

	if cfg.LongTextThreshold != 1000 || cfg.LongChunkChars != 800 {
		t.Errorf("long text defaults = %d/%d, want 1000/800", cfg.LongTextThreshold, cfg.LongChunkChars)
	}

	if cfg.LLMMaxAttempts != 3 {
		t.Errorf("LLMMaxAttempts default = %d, want 3", cfg.LLMMaxAttempts)
	}

	if cfg.FileLoaded {
		t.Error("FileLoaded should be false when config.yaml is missing")
	}

	if cfg.LLMEnabled() {
		t.Error("LLMEnabled should be false without keys")
	}
}

func TestLoad_LegacyAliases(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvOpenAIAPIKey, "sk-legacy")
	t.Setenv(testEnvDiaryModel, "gpt-4o")
	t.Setenv(testEnvDiaryStrict, "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.LLMAPIKey != "sk-legacy" {
		t.Errorf("LLMAPIKey = %q, want alias value", cfg.LLMAPIKey)
	}

	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("LLMModel = %q, want alias value", cfg.LLMModel)
	}

	if !cfg.StrictLLM {
		t.Error("StrictLLM should follow DIARY_STRICT_LLM=1")
	}
}

func TestLoad_PrimaryWinsOverAlias(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvLLMModel, "primary")
	t.Setenv(testEnvDiaryModel, "legacy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.LLMModel != "primary" {
		t.Errorf("LLMModel = %q, want %q", cfg.LLMModel, "primary")
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "model_name: " + testOverlayModelName + "\nstrict_llm: true\nstorage:\n  driver: sqlite\n  sqlite_path: ${TEST_SQLITE_DIR}/diary.db\nlong_text:\n  chunk_chars: 500\n"

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(testEnvConfigPath, path)
	t.Setenv(testEnvLLMModel, "from-env")
	t.Setenv("TEST_SQLITE_DIR", "/tmp/x")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if !cfg.FileLoaded {
		t.Error("FileLoaded should be true")
	}

	if cfg.LLMModel != testOverlayModelName {
		t.Errorf("LLMModel = %q, want YAML value %q", cfg.LLMModel, testOverlayModelName)
	}

	if !cfg.StrictLLM {
		t.Error("StrictLLM should be set by YAML")
	}

	if cfg.StorageDriver != StorageSQLite || cfg.SQLitePath != "/tmp/x/diary.db" {
		t.Errorf("storage = %q %q, want sqlite with expanded path", cfg.StorageDriver, cfg.SQLitePath)
	}

	if cfg.LongChunkChars != 500 {
		t.Errorf("LongChunkChars = %d, want 500", cfg.LongChunkChars)
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStorage, StoragePostgres)

	if _, err := Load(); err == nil {
		t.Error("expected error for postgres driver without POSTGRES_DSN")
	}
}

func TestLoad_UnknownStorageDriver(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStorage, "mongo")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown storage driver")
	}
}

func TestUsableKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"test-abc", false},
		{"sk-real", true},
		{"mock", true},
	}

	for _, tt := range tests {
		if got := UsableKey(tt.key); got != tt.want {
			t.Errorf("UsableKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
