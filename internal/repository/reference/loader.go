// Package reference loads the fragrance reference dataset from a JSON file.
package reference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domref "github.com/Autilos/perfun-bot-new/internal/domain/reference"
)

// entry mirrors one dataset object. Everything except the name is kept raw
// so that one malformed field only costs that field.
type entry struct {
	Name       string          `json:"name"`
	Brand      json.RawMessage `json:"brand"`
	Notes      json.RawMessage `json:"notes"`
	Accords    json.RawMessage `json:"accords"`
	LaunchYear json.RawMessage `json:"launch_year"`
	Stats      json.RawMessage `json:"stats"`
}

// Issue describes a dataset entry that was dropped or loaded without one of
// its fields. Field is empty when the whole entry was dropped.
type Issue struct {
	Index int
	Name  string
	Field string
	Err   error
}

func (i Issue) Error() string {
	if i.Field == "" {
		return fmt.Sprintf("entry %d (%q) dropped: %v", i.Index, i.Name, i.Err)
	}
	return fmt.Sprintf("entry %d (%q) %s ignored: %v", i.Index, i.Name, i.Field, i.Err)
}

// Load reads the dataset file at path.
func Load(path string) ([]domref.Reference, []Issue, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open reference dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	refs, issues, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return refs, issues, nil
}

// Decode parses a JSON array of dataset entries. Only a document that is not
// an array of values fails as a whole; bad entries and bad fields are
// reported as issues and the rest of the dataset is kept.
func Decode(r io.Reader) ([]domref.Reference, []Issue, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decode reference dataset: %w", err)
	}

	refs := make([]domref.Reference, 0, len(items))
	var issues []Issue
	for i, item := range items {
		if isEmpty(item) {
			issues = append(issues, Issue{Index: i, Err: errors.New("null entry")})
			continue
		}
		var e entry
		if err := json.Unmarshal(item, &e); err != nil {
			issues = append(issues, Issue{Index: i, Err: err})
			continue
		}
		fieldIssue := func(field string, err error) {
			issues = append(issues, Issue{Index: i, Name: e.Name, Field: field, Err: err})
		}

		ref := domref.Reference{Name: e.Name}
		if brand, err := decodeString(e.Brand); err != nil {
			fieldIssue("brand", err)
		} else {
			ref.Brand = strings.TrimSpace(brand)
		}
		if notes, err := decodeNotes(e.Notes); err != nil {
			fieldIssue("notes", err)
		} else {
			ref.Notes = notes
		}
		if accords, err := decodeAccords(e.Accords); err != nil {
			fieldIssue("accords", err)
		} else {
			ref.Accords = accords
		}
		if year, err := decodeNumber(e.LaunchYear); err != nil {
			fieldIssue("launch_year", err)
		} else {
			ref.LaunchYear = int(year)
		}
		ref.Stats = decodeStats(e.Stats, fieldIssue)
		refs = append(refs, ref)
	}
	return refs, issues, nil
}

// decodeStats keeps each stat that parses and reports the others.
func decodeStats(raw json.RawMessage, report func(field string, err error)) domref.Stats {
	var st domref.Stats
	if isEmpty(raw) {
		return st
	}
	var fields struct {
		Longevity json.RawMessage `json:"longevity"`
		Sillage   json.RawMessage `json:"sillage"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		report("stats", err)
		return st
	}
	if v, err := decodeNumber(fields.Longevity); err != nil {
		report("stats.longevity", err)
	} else {
		st.Longevity = v
	}
	if v, err := decodeNumber(fields.Sillage); err != nil {
		report("stats.sillage", err)
	} else {
		st.Sillage = v
	}
	return st
}

func decodeString(raw json.RawMessage) (string, error) {
	if isEmpty(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	if isEmpty(raw) {
		return 0, nil
	}
	var n flexNumber
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return float64(n), nil
}

func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

type tiers struct {
	Top    []string `json:"top"`
	Middle []string `json:"middle"`
	Base   []string `json:"base"`
}

// decodeNotes accepts a flat array, a top/middle/base object, or either of
// those nested under a "notes" key.
func decodeNotes(raw json.RawMessage) (domref.Notes, error) {
	if isEmpty(raw) {
		return domref.Notes{}, nil
	}
	raw = bytes.TrimSpace(raw)

	switch raw[0] {
	case '[':
		var flat []string
		if err := json.Unmarshal(raw, &flat); err != nil {
			return domref.Notes{}, err
		}
		return domref.FlatNotes(flat), nil
	case '{':
		var nested struct {
			Notes json.RawMessage `json:"notes"`
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return domref.Notes{}, err
		}
		if len(nested.Notes) > 0 {
			return decodeNotes(nested.Notes)
		}
		var t tiers
		if err := json.Unmarshal(raw, &t); err != nil {
			return domref.Notes{}, err
		}
		return domref.TieredNotes(t.Top, t.Middle, t.Base), nil
	default:
		return domref.Notes{}, fmt.Errorf("unexpected notes value %s", raw)
	}
}

// decodeAccords reads [{"woody": 23.47}, {"amber": 12}] keeping key order,
// including objects that carry several accords.
func decodeAccords(raw json.RawMessage) ([]domref.Accord, error) {
	if isEmpty(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	var accords []domref.Accord
	for _, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
			return nil, fmt.Errorf("accord must be an object, got %s", item)
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := tok.(string)
			var w flexNumber
			if err := dec.Decode(&w); err != nil {
				return nil, fmt.Errorf("accord %q: %w", key, err)
			}
			accords = append(accords, domref.Accord{Name: key, Weight: float64(w)})
		}
	}
	return accords, nil
}

// flexNumber accepts a JSON number, a numeric string, or null.
type flexNumber float64

var errNotNumber = errors.New("not a number")

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("%w: %s", errNotNumber, b)
	}
	*n = flexNumber(f)
	return nil
}
