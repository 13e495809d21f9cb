package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vchan.yaml")
	err := os.WriteFile(path, []byte(`
codec: cbor
reconnect_delay: 250ms
log:
  level: debug
  outputs: [stdout]
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Codec != "cbor" {
		t.Fatal("unexpected codec:", cfg.Codec)
	}
	if cfg.ReconnectDelay != 250*time.Millisecond {
		t.Fatal("unexpected reconnect delay:", cfg.ReconnectDelay)
	}
	if cfg.Log.Level != "debug" || len(cfg.Log.Outputs) != 1 || cfg.Log.Outputs[0] != "stdout" {
		t.Fatal("unexpected log config:", cfg.Log)
	}
	if cfg.MaxFrameSize != Default().MaxFrameSize {
		t.Fatal("expected default max frame size, got", cfg.MaxFrameSize)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("VCHAN_CONFIG", "")
	t.Setenv("VCHAN_RECONNECT_DELAY", "2s")
	t.Setenv("VCHAN_LOG_OUTPUTS", "stdout,stderr")
	t.Setenv("VCHAN_LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReconnectDelay != 2*time.Second {
		t.Fatal("unexpected reconnect delay:", cfg.ReconnectDelay)
	}
	if len(cfg.Log.Outputs) != 2 || cfg.Log.Outputs[1] != "stderr" {
		t.Fatal("unexpected outputs:", cfg.Log.Outputs)
	}
	if cfg.Log.Format != "json" {
		t.Fatal("unexpected format:", cfg.Log.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for an explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	for _, tt := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"codec", func(c *Config) { c.Codec = "xml" }},
		{"reconnect delay", func(c *Config) { c.ReconnectDelay = 0 }},
		{"max frame size", func(c *Config) { c.MaxFrameSize = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	c := Default()
	c.Codec = " CBOR "
	c.Log.Outputs = nil
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Codec != "cbor" || len(c.Log.Outputs) != 1 {
		t.Fatal("expected normalized config:", c)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadSearchIgnoresBinary(t *testing.T) {
	t.Setenv("VCHAN_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	// a built vchan binary in the working directory
	err := os.WriteFile(filepath.Join(dir, "vchan"), []byte("\x7fELF\x02\x01\x01\x00"), 0o755)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Codec != Default().Codec {
		t.Fatal("expected defaults, got codec", cfg.Codec)
	}

	err = os.WriteFile(filepath.Join(dir, "vchan.yaml"), []byte("codec: cbor\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Codec != "cbor" {
		t.Fatal("expected vchan.yaml to be found, got codec", cfg.Codec)
	}
}
