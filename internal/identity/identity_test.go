package identity

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBuildParseRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		path      string
	}{
		{name: "single segment path", namespace: "greyhaven/datapack", path: "readme"},
		{name: "nested path", namespace: "greyhaven/datapack", path: "docs/guides/intro"},
		{name: "hyphens and underscores", namespace: "acme-corp/proj_1", path: "release-notes/v1_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := BuildURI(tt.namespace, tt.path)
			if err != nil {
				t.Fatalf("BuildURI(%q, %q): %v", tt.namespace, tt.path, err)
			}

			ns, path, err := ParseURI(uri)
			if err != nil {
				t.Fatalf("ParseURI(%q): %v", uri, err)
			}
			if ns != tt.namespace || path != tt.path {
				t.Errorf("round trip: got (%q, %q), want (%q, %q)", ns, path, tt.namespace, tt.path)
			}
		})
	}
}

func TestBuildURIDeterministic(t *testing.T) {
	a, err := BuildURI("greyhaven/datapack", "notes/today")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := BuildURI("greyhaven/datapack", "notes/today")
	if a != b {
		t.Errorf("BuildURI not deterministic: %q != %q", a, b)
	}
	if a != "mdp://greyhaven/datapack/notes/today" {
		t.Errorf("unexpected URI form: %q", a)
	}
}

func TestBuildURIInvalidPath(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		path      string
	}{
		{name: "empty path", namespace: "org/proj", path: ""},
		{name: "empty segment", namespace: "org/proj", path: "a//b"},
		{name: "trailing slash", namespace: "org/proj", path: "a/"},
		{name: "illegal characters", namespace: "org/proj", path: "a/b c"},
		{name: "single segment namespace", namespace: "org", path: "a"},
		{name: "three segment namespace", namespace: "org/proj/extra", path: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildURI(tt.namespace, tt.path)
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("BuildURI(%q, %q) = %v, want ErrInvalidPath", tt.namespace, tt.path, err)
			}
		})
	}
}

func TestParseURIMalformed(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "wrong scheme", uri: "http://org/proj/doc"},
		{name: "no scheme", uri: "org/proj/doc"},
		{name: "missing path", uri: "mdp://org/proj"},
		{name: "empty segment", uri: "mdp://org/proj//doc"},
		{name: "illegal characters", uri: "mdp://org/proj/do c"},
		{name: "empty string", uri: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseURI(tt.uri)
			if !errors.Is(err, ErrMalformedURI) {
				t.Errorf("ParseURI(%q) = %v, want ErrMalformedURI", tt.uri, err)
			}
		})
	}
}

func TestNewIDDeterministicWithInjectedRand(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)

	g1 := NewGeneratorWithRand(bytes.NewReader(seed))
	g2 := NewGeneratorWithRand(bytes.NewReader(seed))

	id1, err := g1.NewID()
	if err != nil {
		t.Fatal(err)
	}
	id2, err := g2.NewID()
	if err != nil {
		t.Fatal(err)
	}

	if id1 != id2 {
		t.Errorf("same entropy produced different ids: %q vs %q", id1, id2)
	}
	if !IsUUID(id1) {
		t.Errorf("NewID produced a non-UUID: %q", id1)
	}
}

func TestNewIDEntropyFailure(t *testing.T) {
	g := NewGeneratorWithRand(strings.NewReader("")) // exhausted source
	if _, err := g.NewID(); err == nil {
		t.Error("expected error from exhausted entropy source")
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("123e4567-e89b-12d3-a456-426614174000") {
		t.Error("valid UUID rejected")
	}
	if IsUUID("not-a-uuid") {
		t.Error("invalid UUID accepted")
	}
}
