// Package voices holds the ordered catalog of selectable synthetic voices.
package voices

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownVoice is returned when a label is not in the catalog.
	ErrUnknownVoice = errors.New("unknown voice")
	// ErrDuplicateLabel is returned when a catalog is built with a repeated label.
	ErrDuplicateLabel = errors.New("duplicate voice label")
	// ErrEmptyCatalog is returned when a catalog is built without voices.
	ErrEmptyCatalog = errors.New("voice catalog is empty")
)

// Voice pairs a human-readable label with the provider's model identifier.
type Voice struct {
	Label string
	Model string
}

// Catalog is an immutable, ordered label -> model mapping.
type Catalog struct {
	voices []Voice
	index  map[string]int
	def    int
}

// NewCatalog builds a catalog preserving the given order, defaulting to the first voice.
func NewCatalog(list []Voice) (*Catalog, error) {
	return NewCatalogWithDefault(list, "")
}

// NewCatalogWithDefault builds a catalog whose default is the voice labelled def.
// An empty def selects the first voice.
func NewCatalogWithDefault(list []Voice, def string) (*Catalog, error) {
	if len(list) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		voices: make([]Voice, len(list)),
		index:  make(map[string]int, len(list)),
	}
	copy(c.voices, list)

	for i, v := range c.voices {
		if v.Label == "" || v.Model == "" {
			return nil, fmt.Errorf("voice %d: label and model are required", i)
		}
		if _, exists := c.index[v.Label]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, v.Label)
		}
		c.index[v.Label] = i
	}

	if def != "" {
		i, ok := c.index[def]
		if !ok {
			return nil, fmt.Errorf("%w: default %q", ErrUnknownVoice, def)
		}
		c.def = i
	}

	return c, nil
}

// Lookup returns the model identifier for a display label.
func (c *Catalog) Lookup(label string) (string, error) {
	i, ok := c.index[label]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVoice, label)
	}
	return c.voices[i].Model, nil
}

// Resolve accepts a label, a 1-based index into Labels(), or a model id.
func (c *Catalog) Resolve(ref string) (Voice, error) {
	ref = strings.TrimSpace(ref)
	if i, ok := c.index[ref]; ok {
		return c.voices[i], nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(c.voices) {
		return c.voices[n-1], nil
	}
	for _, v := range c.voices {
		if v.Model == ref {
			return v, nil
		}
	}
	return Voice{}, fmt.Errorf("%w: %s", ErrUnknownVoice, ref)
}

// Labels returns display labels in catalog order.
func (c *Catalog) Labels() []string {
	labels := make([]string, len(c.voices))
	for i, v := range c.voices {
		labels[i] = v.Label
	}
	return labels
}

// Voices returns a copy of the catalog entries.
func (c *Catalog) Voices() []Voice {
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Default returns the default voice.
func (c *Catalog) Default() Voice {
	return c.voices[c.def]
}

// Len returns the number of voices.
func (c *Catalog) Len() int {
	return len(c.voices)
}

// DeepgramAura lists the Aura English voices.
var DeepgramAura = []Voice{
	{"Asteria (American, feminine)", "aura-asteria-en"},
	{"Orpheus (American, masculine)", "aura-orpheus-en"},
	{"Angus (Irish, masculine)", "aura-angus-en"},
	{"Arcas (American, masculine)", "aura-arcas-en"},
	{"Athena (British, feminine)", "aura-athena-en"},
	{"Helios (British, masculine)", "aura-helios-en"},
	{"Hera (American, feminine)", "aura-hera-en"},
	{"Luna (American, feminine)", "aura-luna-en"},
	{"Orion (American, masculine) - Use this one", "aura-orion-en"},
	{"Perseus (American, masculine)", "aura-perseus-en"},
	{"Stella (American, feminine)", "aura-stella-en"},
	{"Zeus (American, masculine)", "aura-zeus-en"},
}

// OpenAI lists the OpenAI speech voices.
var OpenAI = []Voice{
	{"Alloy (neutral, balanced)", "alloy"},
	{"Echo (male, clear)", "echo"},
	{"Fable (British accent)", "fable"},
	{"Onyx (deep male)", "onyx"},
	{"Nova (young female)", "nova"},
	{"Shimmer (warm female)", "shimmer"},
}

// ForProvider returns the catalog for a TTS provider name with def as the
// default label (empty picks the provider's recommended voice).
func ForProvider(provider, def string) (*Catalog, error) {
	switch provider {
	case "", "deepgram":
		if def == "" {
			def = "Orion (American, masculine) - Use this one"
		}
		return NewCatalogWithDefault(DeepgramAura, def)
	case "openai":
		if def == "" {
			def = "Nova (young female)"
		}
		return NewCatalogWithDefault(OpenAI, def)
	default:
		return nil, fmt.Errorf("no voice catalog for provider %q", provider)
	}
}
