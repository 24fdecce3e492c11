package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionShort(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Fatalf("version --short = %q, want %q", got, version)
	}
}

func TestCommandsRegistered(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"watch", "stream", "serve", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("CAMLINK_CENTER_ADDRESS", "ws://env/msg")
	g := &globalFlags{
		configPath: t.TempDir() + "/camlink.json",
		center:     "wss://flag/msg",
		logLevel:   "debug",
	}
	cfg, err := loadConfig(g)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Center.Address != "wss://flag/msg" {
		t.Errorf("Center.Address = %q, want flag value", cfg.Center.Address)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}

	g.logLevel = "shouty"
	if _, err := loadConfig(g); err == nil {
		t.Error("loadConfig() accepted an invalid log level")
	}
}
