package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDiskvMediumRoundTrip(t *testing.T) {
	m, err := OpenDiskv(filepath.Join(t.TempDir(), "hub"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	testMediumContract(t, m)
}

func TestSQLiteMediumRoundTrip(t *testing.T) {
	m, err := OpenSQLite(filepath.Join(t.TempDir(), "hub.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer m.Close()
	testMediumContract(t, m)
}

func TestMemoryMediumRoundTrip(t *testing.T) {
	testMediumContract(t, NewMemory())
}

func testMediumContract(t *testing.T, m Medium) {
	t.Helper()

	if _, err := m.Read("settings"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
	if err := m.Write("settings", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.Write("icons/abc", []byte("png")); err != nil {
		t.Fatalf("write nested: %v", err)
	}
	got, err := m.Read("settings")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("unexpected value %q", got)
	}
	if err := m.Write("settings", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := m.Read("settings"); string(got) != `{"a":2}` {
		t.Fatalf("overwrite not visible, got %q", got)
	}

	keys := m.Keys(context.Background(), "icons/")
	if len(keys) != 1 || keys[0] != "icons/abc" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := m.Remove("settings"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.Remove("settings"); err != nil {
		t.Fatalf("remove missing should be a no-op, got %v", err)
	}
	if _, err := m.Read("settings"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestDiskvRejectsEscapingKeys(t *testing.T) {
	m, err := OpenDiskv(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, key := range []string{"", "../x", "a//b", "a b", `C:\x`} {
		if err := m.Write(key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestWriteAllUsesBatchWhenAvailable(t *testing.T) {
	m, err := OpenSQLite(filepath.Join(t.TempDir(), "hub.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer m.Close()

	err = WriteAll(m, map[string][]byte{"a": []byte("1"), "bad key": []byte("2")})
	if err == nil {
		t.Fatalf("expected invalid key to fail the batch")
	}
	if _, err := m.Read("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("batch should have rolled back, got %v", err)
	}
}

func TestWriteAllWithoutBatchAttemptsEveryKey(t *testing.T) {
	m := NewMemory()
	m.FailWrite = func(key string) error {
		if key == "a" {
			return errors.New("disk full")
		}
		return nil
	}
	if err := WriteAll(m, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err == nil {
		t.Fatalf("expected error")
	}
	if got, err := m.Read("b"); err != nil || string(got) != "2" {
		t.Fatalf("expected b written, got %q %v", got, err)
	}
}

func TestDecodeConfigDefaults(t *testing.T) {
	v := viper.New()
	v.SetDefault("path", "~/.apphub")
	v.SetDefault("backend", "diskv")
	v.SetDefault("icons.ttl", "never")
	v.SetDefault("icons.yield", "16ms")
	v.SetDefault("accent.ttl", "1h")

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.IconBatchSize != 4 || cfg.RecentLimit != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IconTTL != 0 {
		t.Fatalf("expected unbounded icon ttl, got %v", cfg.IconTTL)
	}
	if cfg.AccentTTL.Hours() != 1 {
		t.Fatalf("expected 1h accent ttl, got %v", cfg.AccentTTL)
	}
}

func TestDecodeConfigRejectsUnknownBackend(t *testing.T) {
	v := viper.New()
	v.Set("backend", "etcd")
	v.Set("icons.yield", "1ms")
	if _, err := decodeConfig(v); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
