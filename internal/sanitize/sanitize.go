// Package sanitize strips presentation declarations from protocol XML.
package sanitize

import "strings"

// Declarations the Bundestag embeds in every protocol. Both reference
// resources that are not shipped with the download.
const (
	StylesheetPI = `<?xml-stylesheet href="dbtplenarprotokoll.css" type="text/css" charset="UTF-8"?>`
	DoctypeDTD   = `<!DOCTYPE dbtplenarprotokoll SYSTEM "dbtplenarprotokoll.dtd">`
)

// DefaultDeclarations is the removal list used by Sanitize.
var DefaultDeclarations = []string{StylesheetPI, DoctypeDTD}

// Sanitizer removes a fixed list of literal declarations from markup.
type Sanitizer struct {
	declarations []string
}

// New creates a Sanitizer for the given literals. Empty literals are ignored.
func New(declarations ...string) *Sanitizer {
	s := &Sanitizer{}
	for _, d := range declarations {
		if d != "" {
			s.declarations = append(s.declarations, d)
		}
	}
	return s
}

// Sanitize removes every occurrence of each declaration. All other text,
// including whitespace around the removed spans, is left as is.
//
// Removal repeats until a full pass changes nothing, since dropping one span
// can join its neighbours into a new occurrence.
func (s *Sanitizer) Sanitize(markup string) string {
	for {
		before := len(markup)
		for _, d := range s.declarations {
			markup = strings.ReplaceAll(markup, d, "")
		}
		if len(markup) == before {
			return markup
		}
	}
}

var defaultSanitizer = New(DefaultDeclarations...)

// Sanitize removes the Bundestag stylesheet and DTD declarations.
func Sanitize(markup string) string {
	return defaultSanitizer.Sanitize(markup)
}
