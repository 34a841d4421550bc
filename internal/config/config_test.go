package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestViperConfig_Getters(t *testing.T) {
	v := viper.New()
	v.Set("name", "netmeter")
	v.Set("port", 8080)
	v.Set("enabled", true)
	v.Set("timeout", "5s")
	v.Set("groups", []string{"a", "b"})

	c := New(v)

	if got := c.GetString("name"); got != "netmeter" {
		t.Errorf("GetString = %q, want %q", got, "netmeter")
	}
	if got := c.GetInt("port"); got != 8080 {
		t.Errorf("GetInt = %d, want 8080", got)
	}
	if got := c.GetBool("enabled"); !got {
		t.Error("GetBool = false, want true")
	}
	if got := c.GetDuration("timeout"); got != 5*time.Second {
		t.Errorf("GetDuration = %v, want 5s", got)
	}
	if got := c.GetStringSlice("groups"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("GetStringSlice = %v, want [a b]", got)
	}
	if !c.IsSet("port") {
		t.Error("IsSet(port) = false, want true")
	}
	if c.IsSet("missing") {
		t.Error("IsSet(missing) = true, want false")
	}
}

func TestViperConfig_Sub(t *testing.T) {
	v := viper.New()
	v.Set("plugins.carrier.enabled", true)

	c := New(v)

	sub := c.Sub("plugins.carrier")
	if !sub.GetBool("enabled") {
		t.Error("sub GetBool(enabled) = false, want true")
	}

	// A missing subtree returns an empty (non-nil) config.
	missing := c.Sub("plugins.nonexistent")
	if missing == nil {
		t.Fatal("Sub returned nil for missing key")
	}
	if missing.IsSet("anything") {
		t.Error("empty sub reports keys set")
	}
}

func TestViperConfig_NilViper(t *testing.T) {
	c := New(nil)
	if c.Viper() == nil {
		t.Fatal("Viper() returned nil")
	}
	if c.GetString("anything") != "" {
		t.Error("empty config returned a value")
	}
}

func TestNewLogger_Defaults(t *testing.T) {
	v := viper.New()
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	logger, err := NewLogger(v)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "warn")
	v.Set("logging.format", "console")

	logger, err := NewLogger(v)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "banana")
	v.Set("logging.format", "json")

	if _, err := NewLogger(v); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "info")
	v.Set("logging.format", "xml")

	if _, err := NewLogger(v); err == nil {
		t.Fatal("expected error for invalid format")
	}
}
