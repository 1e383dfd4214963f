package reference

// NotesKind tells which shape the reference notes were published in.
type NotesKind int

// Notes shapes.
const (
	NotesNone NotesKind = iota
	NotesFlat
	NotesTiered
)

// String implements fmt.Stringer.
func (k NotesKind) String() string {
	switch k {
	case NotesFlat:
		return "flat"
	case NotesTiered:
		return "tiered"
	default:
		return "none"
	}
}

// Notes is either a flat list or a top/middle/base pyramid. The shape is
// decided once, when the dataset is loaded.
type Notes struct {
	kind   NotesKind
	flat   []string
	top    []string
	middle []string
	base   []string
}

// FlatNotes creates an unstructured note list.
func FlatNotes(notes []string) Notes {
	if len(notes) == 0 {
		return Notes{}
	}
	return Notes{kind: NotesFlat, flat: notes}
}

// TieredNotes creates a note pyramid. All tiers empty means no notes.
func TieredNotes(top, middle, base []string) Notes {
	if len(top) == 0 && len(middle) == 0 && len(base) == 0 {
		return Notes{}
	}
	return Notes{kind: NotesTiered, top: top, middle: middle, base: base}
}

// Kind returns the notes shape.
func (n Notes) Kind() NotesKind { return n.kind }

// Flat returns the flat list. Empty unless Kind is NotesFlat.
func (n Notes) Flat() []string { return n.flat }

// Tiers returns the pyramid. Empty unless Kind is NotesTiered.
func (n Notes) Tiers() (top, middle, base []string) { return n.top, n.middle, n.base }
