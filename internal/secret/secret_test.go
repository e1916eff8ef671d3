package secret

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dooshek/cablespeak/internal/types"
)

func TestChain_Priority(t *testing.T) {
	chain := Chain{
		MapProvider{"A": ""},
		MapProvider{"A": "second", "B": "b-second"},
		MapProvider{"A": "third", "C": "c-third"},
	}

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"A", "second", true},
		{"B", "b-second", true},
		{"C", "c-third", true},
		{"D", "", false},
	}
	for _, tt := range tests {
		got, ok := chain.Lookup(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%s) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("CABLESPEAK_TEST_SECRET", "  from-env  ")

	v, ok := EnvProvider{}.Lookup("CABLESPEAK_TEST_SECRET")
	if !ok || v != "from-env" {
		t.Errorf("Lookup() = (%q, %v), want trimmed value", v, ok)
	}

	t.Setenv("CABLESPEAK_TEST_EMPTY", "")
	if _, ok := (EnvProvider{}).Lookup("CABLESPEAK_TEST_EMPTY"); ok {
		t.Error("empty env value should not count as set")
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	if err := os.WriteFile(first, []byte("DEEPGRAM_API_KEY=dotenv-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("DEEPGRAM_API_KEY=ignored\nOPENAI_API_KEY=oa\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := DotEnv(first, filepath.Join(dir, "missing.env"), second)

	if v, _ := p.Lookup(DeepgramKeyEnv); v != "dotenv-key" {
		t.Errorf("DEEPGRAM_API_KEY = %q, want first file's value", v)
	}
	if v, _ := p.Lookup(OpenAIKeyEnv); v != "oa" {
		t.Errorf("OPENAI_API_KEY = %q, want oa", v)
	}
	if _, set := os.LookupEnv("CABLESPEAK_NEVER_SET"); set {
		t.Error("DotEnv must not modify the environment")
	}
}

func TestRequire(t *testing.T) {
	cfg := &types.Config{Keys: types.Keys{DeepgramKey: "cfg-key"}}

	v, err := Require(FromConfig(cfg), DeepgramKeyEnv)
	if err != nil || v != "cfg-key" {
		t.Errorf("Require() = (%q, %v), want cfg-key", v, err)
	}

	_, err = Require(FromConfig(cfg), OpenAIKeyEnv)
	if !errors.Is(err, ErrMissing) {
		t.Errorf("Require() error = %v, want ErrMissing", err)
	}

	if _, err := Require(FromConfig(nil), DeepgramKeyEnv); !errors.Is(err, ErrMissing) {
		t.Errorf("Require(nil cfg) error = %v, want ErrMissing", err)
	}
}

func TestKeyForProvider(t *testing.T) {
	if KeyForProvider("openai") != OpenAIKeyEnv {
		t.Error("openai should use OPENAI_API_KEY")
	}
	if KeyForProvider("deepgram") != DeepgramKeyEnv || KeyForProvider("") != DeepgramKeyEnv {
		t.Error("deepgram should use DEEPGRAM_API_KEY")
	}
}
