package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Snapshot:  SnapshotConfig{Driver: "file", Path: "embeddings.json"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
		Search:    SearchConfig{DefaultTopK: 3, MaxTopK: 100},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownSnapshotDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Snapshot.Driver = "sqlite"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown snapshot driver")
	}

	expected := `snapshot.driver must be "file" or "redis", got "sqlite"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisDriverRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Snapshot.Driver = "redis"
	cfg.Snapshot.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_DefaultTopKAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultTopK = 200
	cfg.Search.MaxTopK = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_top_k > max_top_k")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Snapshot.Driver != "file" {
		t.Errorf("expected snapshot driver file, got %q", cfg.Snapshot.Driver)
	}
	if cfg.Snapshot.Path != "embeddings.json" {
		t.Errorf("expected default snapshot path, got %q", cfg.Snapshot.Path)
	}
	if cfg.Embedding.TimeoutSec != 30 {
		t.Errorf("expected embedding timeout 30, got %d", cfg.Embedding.TimeoutSec)
	}
	if cfg.Search.DefaultTopK != 3 {
		t.Errorf("expected default top_k 3, got %d", cfg.Search.DefaultTopK)
	}
	if cfg.Search.MaxTopK != 100 {
		t.Errorf("expected max top_k 100, got %d", cfg.Search.MaxTopK)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PLACESENSE_TEST_KEY", "secret")

	in := []byte("api_key: ${PLACESENSE_TEST_KEY}\nbase_url: ${PLACESENSE_TEST_URL:-http://localhost:1234/v1}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nbase_url: http://localhost:1234/v1\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}
