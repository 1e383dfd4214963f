package storefront

import (
	"regexp"
	"strings"

	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// ws also matches the non-breaking spaces shop editors paste into descriptions.
const ws = `[\s\x{00A0}]`

type notePattern struct {
	primary  *regexp.Regexp
	fallback *regexp.Regexp
}

func newNotePattern(keyword string) notePattern {
	kw := regexp.QuoteMeta(keyword)
	return notePattern{
		primary: regexp.MustCompile(`(?i)` + kw + ws + `+[^.]*?` + ws +
			`+(?:uderza|rozwijają się|tworzy|mieszanką)` + ws + `+([^.]*)`),
		fallback: regexp.MustCompile(`(?i)` + kw + ws + `+[^.]*?` + ws + `+([^.]*)`),
	}
}

var (
	topNotes   = newNotePattern("Otwarcie")
	heartNotes = newNotePattern("sercu")
	baseNotes  = newNotePattern("Bazę")
)

// extract returns the sentence fragment that follows the keyword, or "".
func (p notePattern) extract(description string) string {
	m := p.primary.FindStringSubmatch(description)
	if m == nil {
		m = p.fallback.FindStringSubmatch(description)
	}
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractNotes pulls the head, heart and base fragments out of the prose
// description, e.g. "Otwarcie zapachu uderza bergamotką." gives Top "bergamotką".
func extractNotes(description string) product.Notes {
	if description == "" || description == product.NoDescription {
		return product.Notes{}
	}
	return product.Notes{
		Top:   topNotes.extract(description),
		Heart: heartNotes.extract(description),
		Base:  baseNotes.extract(description),
	}
}
