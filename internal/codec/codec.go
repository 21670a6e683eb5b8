// Package codec defines the Codec interface and a registry for
// pluggable transaction format codecs. To add a new format, create a
// package that implements Codec and calls Register from its init
// function. The registry resolves codecs by format name and, for
// example-file listings, by file extension.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ypbank/txcodec/internal/domain/entity"
	errs "github.com/ypbank/txcodec/internal/domain/error"
)

// Codec is a parser/writer pair for one on-wire transaction format.
type Codec interface {
	// Name returns the canonical format name used on the command line
	// (e.g. "csv", "txt", "bin", "mt940").
	Name() string

	// Extensions returns file extensions this codec handles, including
	// the leading dot.
	Extensions() []string

	// Parse reads the whole input and returns the decoded records.
	// The first malformed record aborts the parse.
	Parse(r io.Reader) ([]entity.Transaction, error)

	// Write serializes the records to the sink in this codec's format.
	Write(records []entity.Transaction, w io.Writer) error
}

var registry = map[string]Codec{}

// Register adds a codec to the global registry under its name. Call
// this from an init function in your format package.
func Register(c Codec) {
	registry[strings.ToLower(c.Name())] = c
}

// ForName resolves a format name (case-insensitive) to its codec.
func ForName(name string) (Codec, error) {
	if c, ok := registry[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q (known formats: %s)",
		errs.ErrUnsupportedFormat, name, strings.Join(Names(), ", "))
}

// ForExtension resolves a file name to a codec by its extension, used
// for labeling example files. Returns nil when no codec matches.
func ForExtension(filename string) Codec {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, c := range registry {
		for _, e := range c.Extensions() {
			if ext == e {
				return c
			}
		}
	}
	return nil
}

// Names returns the sorted names of every registered codec.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
