// Package identity generates and parses the stable identifiers used to
// address documents: UUID v4 ids and mdp:// URIs.
//
// A document URI has the form mdp://{namespace}/{path}. The namespace is an
// organization/project pair (exactly two segments), the path is one or more
// repository-relative segments. Every segment matches [A-Za-z0-9_-]+.
package identity

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Scheme is the URI scheme for document addressing.
const Scheme = "mdp"

const schemePrefix = Scheme + "://"

// namespaceSegments is the fixed segment count of a namespace
// (organization/project). Keeping it fixed makes ParseURI the exact
// inverse of BuildURI.
const namespaceSegments = 2

var (
	// ErrMalformedURI indicates a string that does not match the
	// mdp://{namespace}/{path} grammar.
	ErrMalformedURI = errors.New("malformed URI")

	// ErrInvalidPath indicates a namespace or logical path with empty or
	// illegal segments.
	ErrInvalidPath = errors.New("invalid path")
)

// segmentPattern restricts namespace and path segments.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generator produces document ids. The entropy source is injectable so
// tests can generate deterministic ids.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewGeneratorWithRand returns a Generator reading entropy from r.
func NewGeneratorWithRand(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// NewID returns a new UUID v4 string. An entropy-source failure is fatal
// for the caller; it is surfaced, never retried.
func (g *Generator) NewID() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if g.rand != nil {
		id, err = uuid.NewRandomFromReader(g.rand)
	} else {
		id, err = uuid.NewRandom()
	}
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// BuildURI constructs mdp://{namespace}/{path}. The construction is
// deterministic: the same namespace and path always produce the same URI.
func BuildURI(namespace, path string) (string, error) {
	nsSegs := strings.Split(namespace, "/")
	if len(nsSegs) != namespaceSegments {
		return "", fmt.Errorf("namespace %q: expected organization/project: %w", namespace, ErrInvalidPath)
	}
	if err := validateSegments(nsSegs); err != nil {
		return "", fmt.Errorf("namespace %q: %w", namespace, err)
	}
	if path == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	if err := validateSegments(strings.Split(path, "/")); err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	return schemePrefix + namespace + "/" + path, nil
}

// ParseURI splits an mdp URI into namespace and path. The parse is strict:
// anything that does not match the grammar exactly fails with ErrMalformedURI.
func ParseURI(s string) (namespace, path string, err error) {
	if !strings.HasPrefix(s, schemePrefix) {
		return "", "", fmt.Errorf("%q: missing %s scheme: %w", s, schemePrefix, ErrMalformedURI)
	}
	segments := strings.Split(strings.TrimPrefix(s, schemePrefix), "/")
	if len(segments) < namespaceSegments+1 {
		return "", "", fmt.Errorf("%q: expected mdp://{organization}/{project}/{path}: %w", s, ErrMalformedURI)
	}
	for _, seg := range segments {
		if !segmentPattern.MatchString(seg) {
			return "", "", fmt.Errorf("%q: segment %q: %w", s, seg, ErrMalformedURI)
		}
	}
	namespace = strings.Join(segments[:namespaceSegments], "/")
	path = strings.Join(segments[namespaceSegments:], "/")
	return namespace, path, nil
}

// IsURI reports whether s parses as an mdp URI.
func IsURI(s string) bool {
	_, _, err := ParseURI(s)
	return err == nil
}

func validateSegments(segs []string) error {
	for _, seg := range segs {
		if !segmentPattern.MatchString(seg) {
			return ErrInvalidPath
		}
	}
	return nil
}
