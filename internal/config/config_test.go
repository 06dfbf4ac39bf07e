package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_FileEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	yml := "default_domain: transaction\n" +
		"sheet_index: 2\n" +
		"extra_aliases:\n" +
		"  area:\n" +
		"    - 使用面积\n"
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PROPDASH_SERVE_ADDR", "127.0.0.1:9090")

	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DefaultDomain != "transaction" || c.SheetIndex != 2 {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.ServeAddr != "127.0.0.1:9090" {
		t.Fatalf("env override not applied: %q", c.ServeAddr)
	}
	if c.Encoding != "auto" || c.LogLevel != "warn" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if !reflect.DeepEqual(c.ExtraAliases["area"], []string{"使用面积"}) {
		t.Fatalf("extra aliases: %+v", c.ExtraAliases)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DefaultDomain != "for-sale" || c.ServeAddr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestSaveAndReload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for k, v := range map[string]string{"delimiter": "tab", "encoding": "GB18030", "log_format": "json", "extra_aliases": "total_price=售价, 报价"} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := Save(c, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.DelimiterRune() != '\t' || back.Encoding != "gb18030" || back.LogFormat != "json" {
		t.Fatalf("round trip lost values: %+v", back)
	}
	if got := back.Get("extra_aliases"); got != "total_price=售价,报价" {
		t.Fatalf("extra_aliases: %q", got)
	}
}

func TestSet_Validation(t *testing.T) {
	c := &Global{}
	bad := map[string]string{
		"default_domain": "rental",
		"delimiter":      ";;",
		"encoding":       "latin-1",
		"sheet_index":    "first",
		"log_level":      "loud",
		"log_format":     "xml",
		"extra_aliases":  "nofield",
		"api_key":        "x",
	}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Fatalf("Set(%q, %q) should fail", k, v)
		}
	}
	if err := c.Set("default_domain", "成交"); err != nil || c.DefaultDomain != "transaction" {
		t.Fatalf("domain alias: %q, %v", c.DefaultDomain, err)
	}
}
