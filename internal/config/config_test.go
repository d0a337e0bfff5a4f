package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	homedir.DisableCache = true
	t.Setenv("HOME", dir)
	t.Setenv("TEAGRID_CONFIG_PATH", dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Vault != filepath.Join(home, "notes") {
		t.Fatalf("vault = %q", cfg.Vault)
	}
	if cfg.Data != filepath.Join(home, ".teagrid") {
		t.Fatalf("data = %q", cfg.Data)
	}
	if cfg.Grid != "grid-layout" || cfg.SwapSpacing != 8 || cfg.Style != "dark" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Log.File != filepath.Join(home, ".teagrid", "teagrid.log") {
		t.Fatalf("log file = %q", cfg.Log.File)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	home := isolate(t)
	yaml := "vault: ~/vault\ngrid: from-file\nswap_spacing: 12\nlog:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(home, ".teagrid.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEAGRID_LOCALE", "zh")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyGrid, "", "")
	flags.String(KeyVault, "", "")
	if err := flags.Parse([]string{"--grid", "from-flag"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Vault != filepath.Join(home, "vault") {
		t.Fatalf("vault = %q, want file value", cfg.Vault)
	}
	if cfg.Grid != "from-flag" {
		t.Fatalf("grid = %q, want flag value", cfg.Grid)
	}
	if cfg.Locale != "zh" {
		t.Fatalf("locale = %q, want env value", cfg.Locale)
	}
	if cfg.SwapSpacing != 12 || cfg.Log.Level != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
