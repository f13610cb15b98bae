package eip712

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/filozone/synapse-go/autherr"
)

// maxTypeDepth bounds type-reference recursion. The registry forbids
// cycles, so any chain deeper than this is a malformed schema.
const maxTypeDepth = 32

// EncodeType flattens the schema into the canonical encoded-type string
// for root: the root's own fragment first, then the fragment of every
// distinct transitively referenced custom type, sorted lexicographically
// by type name, concatenated with no separator. The result is
// deterministic for a given schema and root.
func EncodeType(schema Schema, root string) (string, error) {
	if _, ok := schema[root]; !ok {
		return "", autherr.SchemaNotFound(root)
	}

	deps := make([]string, 0, len(schema))
	walk := &typeWalk{
		schema: schema,
		seen:   make(map[string]bool, len(schema)),
		path:   make(map[string]bool, len(schema)),
	}
	if err := walk.collect(root, &deps, 0); err != nil {
		return "", err
	}

	rest := deps[1:]
	sort.Strings(rest)
	ordered := append([]string{root}, rest...)

	var b strings.Builder
	for _, name := range ordered {
		b.WriteString(name)
		b.WriteByte('(')
		for i, field := range schema[name] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(field.Type)
			b.WriteByte(' ')
			b.WriteString(field.Name)
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

// typeWalk gathers the distinct custom types reachable from a root,
// depth first. The seen set handles diamond references; the path set and
// depth guard turn a recursive schema into an error instead of a hang.
type typeWalk struct {
	schema Schema
	seen   map[string]bool
	path   map[string]bool
}

func (w *typeWalk) collect(typeName string, out *[]string, depth int) error {
	if depth > maxTypeDepth {
		return autherr.InvalidArgument("type %q exceeds reference depth %d", typeName, maxTypeDepth)
	}
	if w.path[typeName] {
		return autherr.InvalidArgument("recursive reference through type %q", typeName)
	}
	if w.seen[typeName] {
		return nil
	}
	w.seen[typeName] = true
	w.path[typeName] = true
	*out = append(*out, typeName)

	for _, field := range w.schema[typeName] {
		base := baseType(field.Type)
		if _, ok := w.schema[base]; ok {
			if err := w.collect(base, out, depth+1); err != nil {
				return err
			}
		}
	}
	delete(w.path, typeName)
	return nil
}

// baseType strips an array suffix from a declared field type.
func baseType(fieldType string) string {
	if i := strings.IndexByte(fieldType, '['); i >= 0 {
		return fieldType[:i]
	}
	return fieldType
}

// Canonicalizer memoizes canonical type encodings for one schema.
// EncodeType is pure, so cached results never go stale.
type Canonicalizer struct {
	schema Schema
	cache  *lru.Cache[string, string]
}

// NewCanonicalizer creates a canonicalizer over the given schema.
func NewCanonicalizer(schema Schema) *Canonicalizer {
	cache, err := lru.New[string, string](64)
	if err != nil {
		panic(err) // only possible with a non-positive size
	}
	return &Canonicalizer{schema: schema, cache: cache}
}

// EncodeType returns the canonical encoded-type string for root.
func (c *Canonicalizer) EncodeType(root string) (string, error) {
	if encoded, ok := c.cache.Get(root); ok {
		return encoded, nil
	}
	encoded, err := EncodeType(c.schema, root)
	if err != nil {
		return "", err
	}
	c.cache.Add(root, encoded)
	return encoded, nil
}

// TypeHash returns the keccak256 hash of the canonical encoded-type
// string for root.
func (c *Canonicalizer) TypeHash(root string) (common.Hash, error) {
	encoded, err := c.EncodeType(root)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(encoded)), nil
}

var authCanonicalizer = NewCanonicalizer(AuthTypes)

// AuthEncodeType returns the canonical encoded-type string for an
// authorization operation or one of its referenced types.
func AuthEncodeType(root string) (string, error) {
	return authCanonicalizer.EncodeType(root)
}

// AuthTypeHash returns the type hash discriminating one authorization
// operation from another.
func AuthTypeHash(root string) (common.Hash, error) {
	return authCanonicalizer.TypeHash(root)
}

// MustAuthTypeHash is AuthTypeHash for type names known at compile time.
// It panics on an unknown name.
func MustAuthTypeHash(root string) common.Hash {
	h, err := AuthTypeHash(root)
	if err != nil {
		panic(err)
	}
	return h
}
