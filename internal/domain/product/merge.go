package product

import (
	"strconv"
	"strings"

	"github.com/Autilos/perfun-bot-new/internal/domain/reference"
)

// Separators used when composing stored text.
const (
	lineSep    = " | "
	sectionSep = "\n\n"
	listSep    = ", "
)

// Merge combines a shop record with its dataset match (nil when unmatched).
// The result has no embedding yet.
func Merge(raw Raw, ref *reference.Reference) Enriched {
	return Enriched{
		externalID:  raw.ExternalID,
		name:        strings.TrimSpace(raw.Name),
		brand:       brandOf(raw, ref),
		price:       raw.Price,
		inStock:     raw.InStock,
		description: composeDescription(raw, ref),
		scentNotes:  composeNotes(raw, ref),
		imageURL:    orPlaceholder(raw.ImageURL),
		productURL:  raw.ProductURL,
	}
}

func brandOf(raw Raw, ref *reference.Reference) string {
	if ref != nil {
		if b := strings.TrimSpace(ref.Brand); b != "" {
			return b
		}
	}
	if fields := strings.Fields(raw.Name); len(fields) > 0 {
		return fields[0]
	}
	return Placeholder
}

func composeNotes(raw Raw, ref *reference.Reference) string {
	var lines []string
	lines = appendLabeled(lines, "Głowa", raw.Notes.Top)
	lines = appendLabeled(lines, "Serce", raw.Notes.Heart)
	lines = appendLabeled(lines, "Baza", raw.Notes.Base)
	for _, o := range raw.Notes.Other {
		if Present(o) {
			lines = append(lines, strings.TrimSpace(o))
		}
	}

	if ref != nil {
		switch ref.Notes.Kind() {
		case reference.NotesFlat:
			lines = appendLabeled(lines, "Fragrantica Notes", joinPresent(ref.Notes.Flat()))
		case reference.NotesTiered:
			top, middle, base := ref.Notes.Tiers()
			lines = appendLabeled(lines, "Fragrantica Top", joinPresent(top))
			lines = appendLabeled(lines, "Fragrantica Middle", joinPresent(middle))
			lines = appendLabeled(lines, "Fragrantica Base", joinPresent(base))
		case reference.NotesNone:
		}
	}

	if len(lines) == 0 {
		return NoNotes
	}
	return strings.Join(lines, lineSep)
}

func composeDescription(raw Raw, ref *reference.Reference) string {
	base := strings.TrimSpace(raw.Description)
	if !Present(base) {
		base = NoDescription
	}
	parts := []string{base}

	var attrs []string
	attrs = appendLabeled(attrs, "Pojemność", raw.Attributes.Capacity)
	attrs = appendLabeled(attrs, "Koncentracja", raw.Attributes.Concentration)
	attrs = appendLabeled(attrs, "Płeć", raw.Attributes.Gender)
	if len(raw.Variants) > 0 {
		attrs = append(attrs, "Dostępne warianty: "+strings.Join(raw.Variants, lineSep))
	}
	if len(attrs) > 0 {
		parts = append(parts, strings.Join(attrs, lineSep))
	}

	if ref != nil {
		var stats []string
		if ref.LaunchYear > 0 {
			stats = append(stats, "Rok premiery: "+strconv.Itoa(ref.LaunchYear))
		}
		if ref.Stats.Longevity > 0 {
			stats = append(stats, "Trwałość: "+formatRating(ref.Stats.Longevity)+"/5")
		}
		if ref.Stats.Sillage > 0 {
			stats = append(stats, "Projekcja: "+formatRating(ref.Stats.Sillage)+"/5")
		}
		if len(stats) > 0 {
			parts = append(parts, strings.Join(stats, lineSep))
		}

		if len(ref.Accords) > 0 {
			rendered := make([]string, 0, len(ref.Accords))
			for _, a := range ref.Accords {
				rendered = append(rendered, FormatAccord(a))
			}
			parts = append(parts, "Akordy: "+strings.Join(rendered, listSep))
		}
	}

	return strings.Join(parts, sectionSep)
}

// FormatAccord renders an accord as "name (w%)" with the weight rounded to
// one decimal. Rounding is correct rounding of the binary value with ties to
// even, so 23.47 renders as 23.5 and 0.25 as 0.2.
func FormatAccord(a reference.Accord) string {
	return a.Name + " (" + strconv.FormatFloat(a.Weight, 'f', 1, 64) + "%)"
}

// formatRating prints 4 as "4" and 3.5 as "3.5".
func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func appendLabeled(lines []string, label, value string) []string {
	if !Present(value) {
		return lines
	}
	return append(lines, label+": "+strings.TrimSpace(value))
}

func joinPresent(items []string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if Present(it) {
			kept = append(kept, strings.TrimSpace(it))
		}
	}
	return strings.Join(kept, listSep)
}

func orPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return Placeholder
	}
	return v
}
