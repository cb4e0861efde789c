// Package mimetype resolves response content types from file extensions.
package mimetype

import (
	_ "embed"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/cases"
)

//go:embed types.toml
var defaultTypes string

// Table maps file extensions to content types.
// It is built once and never modified, so it is safe for concurrent use.
type Table struct {
	// override is consulted first and wins over every other source.
	override map[string]string
	// register is consulted before the platform registry.
	register map[string]string
	fallback string
}

// tableFile is the TOML layout of a Table.
type tableFile struct {
	Fallback string            `toml:"fallback"`
	Override map[string]string `toml:"override"`
	Register map[string]string `toml:"register"`
}

// Default returns the table embedded in the binary.
func Default() (*Table, error) {
	return Parse(defaultTypes)
}

// Parse decodes a TOML table.
//
// Keys of the override and register sections must be extensions starting
// with a dot, and every value must be a valid media type. Unknown keys are
// rejected.
func Parse(data string) (*Table, error) {
	var tf tableFile
	md, err := toml.Decode(data, &tf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode type table: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in type table", undecoded[0].String())
	}

	if tf.Fallback == "" {
		tf.Fallback = "application/octet-stream"
	}
	if _, _, err := mime.ParseMediaType(tf.Fallback); err != nil {
		return nil, fmt.Errorf("invalid fallback type %q: %w", tf.Fallback, err)
	}

	override, err := normalize("override", tf.Override)
	if err != nil {
		return nil, err
	}
	register, err := normalize("register", tf.Register)
	if err != nil {
		return nil, err
	}

	return &Table{
		override: override,
		register: register,
		fallback: tf.Fallback,
	}, nil
}

// normalize validates one section and folds its keys.
func normalize(section string, m map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for ext, typ := range m {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return nil, fmt.Errorf("%s: %q is not a file extension", section, ext)
		}
		if _, _, err := mime.ParseMediaType(typ); err != nil {
			return nil, fmt.Errorf("%s: invalid type %q for %s: %w", section, typ, ext, err)
		}
		out[fold(ext)] = typ
	}
	return out, nil
}

// TypeByExtension returns the content type for ext, which includes the
// leading dot. Lookup is case-insensitive and never fails: unknown
// extensions get the fallback type.
func (t *Table) TypeByExtension(ext string) string {
	if ext == "" {
		return t.fallback
	}
	ext = fold(ext)
	if typ, ok := t.override[ext]; ok {
		return typ
	}
	if typ, ok := t.register[ext]; ok {
		return typ
	}
	if typ := mime.TypeByExtension(ext); typ != "" {
		return typ
	}
	return t.fallback
}

// TypeByPath returns the content type for the slash-separated path p.
func (t *Table) TypeByPath(p string) string {
	return t.TypeByExtension(Ext(p))
}

// Ext returns the extension of the last element of p.
//
// Unlike path.Ext, leading dots of the base name are not treated as an
// extension separator, so "/.js" and "..js" have no extension.
func Ext(p string) string {
	base := path.Base(p)
	name := strings.TrimLeft(base, ".")
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}

// fold returns the case-folded form of an extension.
// A Caser holds state, so a fresh one is made for every call.
func fold(s string) string {
	return cases.Fold().String(s)
}
