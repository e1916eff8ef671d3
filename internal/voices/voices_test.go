package voices

import (
	"errors"
	"testing"
)

func TestNewCatalog_PreservesOrder(t *testing.T) {
	c, err := NewCatalog(DeepgramAura)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	labels := c.Labels()
	if len(labels) != 12 {
		t.Fatalf("len(Labels()) = %d, want 12", len(labels))
	}
	if labels[0] != "Asteria (American, feminine)" {
		t.Errorf("first label = %q", labels[0])
	}
	if labels[11] != "Zeus (American, masculine)" {
		t.Errorf("last label = %q", labels[11])
	}
	if c.Default().Model != "aura-asteria-en" {
		t.Errorf("Default() = %+v, want first voice", c.Default())
	}
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Voice{
		{"A", "model-a"},
		{"A", "model-b"},
	})
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("NewCatalog() error = %v, want ErrDuplicateLabel", err)
	}
}

func TestNewCatalog_RejectsEmpty(t *testing.T) {
	if _, err := NewCatalog(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("NewCatalog(nil) error = %v, want ErrEmptyCatalog", err)
	}
	if _, err := NewCatalog([]Voice{{"A", ""}}); err == nil {
		t.Error("NewCatalog() expected error for empty model")
	}
}

func TestCatalog_IsImmutable(t *testing.T) {
	list := []Voice{{"A", "model-a"}}
	c, err := NewCatalog(list)
	if err != nil {
		t.Fatal(err)
	}
	list[0].Model = "changed"

	got, err := c.Lookup("A")
	if err != nil {
		t.Fatal(err)
	}
	if got != "model-a" {
		t.Errorf("Lookup() = %s after mutating input, want model-a", got)
	}

	vs := c.Voices()
	vs[0].Model = "changed"
	if got, _ := c.Lookup("A"); got != "model-a" {
		t.Errorf("Voices() leaked internal slice")
	}
}

func TestLookup(t *testing.T) {
	c, err := ForProvider("deepgram", "")
	if err != nil {
		t.Fatal(err)
	}

	model, err := c.Lookup("Orion (American, masculine) - Use this one")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if model != "aura-orion-en" {
		t.Errorf("Lookup() = %s, want aura-orion-en", model)
	}

	if _, err := c.Lookup("Nobody"); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("Lookup(Nobody) error = %v, want ErrUnknownVoice", err)
	}
}

func TestResolve(t *testing.T) {
	c, err := ForProvider("deepgram", "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref   string
		model string
	}{
		{"Luna (American, feminine)", "aura-luna-en"},
		{"1", "aura-asteria-en"},
		{" 12 ", "aura-zeus-en"},
		{"aura-helios-en", "aura-helios-en"},
	}
	for _, tt := range tests {
		v, err := c.Resolve(tt.ref)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.ref, err)
			continue
		}
		if v.Model != tt.model {
			t.Errorf("Resolve(%q) = %s, want %s", tt.ref, v.Model, tt.model)
		}
	}

	for _, bad := range []string{"0", "13", "nope"} {
		if _, err := c.Resolve(bad); !errors.Is(err, ErrUnknownVoice) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnknownVoice", bad, err)
		}
	}
}

func TestForProvider(t *testing.T) {
	dg, err := ForProvider("", "")
	if err != nil {
		t.Fatal(err)
	}
	if dg.Default().Model != "aura-orion-en" {
		t.Errorf("deepgram default = %s, want aura-orion-en", dg.Default().Model)
	}

	oa, err := ForProvider("openai", "")
	if err != nil {
		t.Fatal(err)
	}
	if oa.Default().Model != "nova" {
		t.Errorf("openai default = %s, want nova", oa.Default().Model)
	}

	if _, err := ForProvider("deepgram", "Missing"); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("ForProvider() bad default error = %v", err)
	}
	if _, err := ForProvider("polly", ""); err == nil {
		t.Error("ForProvider(polly) expected error")
	}
}
