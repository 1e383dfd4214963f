package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	domref "github.com/Autilos/perfun-bot-new/internal/domain/reference"
)

const dataset = `[
  {
    "name": "Afnan 9PM",
    "brand": "Afnan",
    "notes": {"notes": {"top": ["jabłko", "cynamon"], "middle": ["kwiat pomarańczy"], "base": ["wanilia"]}},
    "accords": [{"sweet": 100}, {"warm spicy": 67.35, "amber": 55}],
    "launch_year": "2020",
    "stats": {"longevity": 4.2, "sillage": "3.5"}
  },
  {
    "name": "Versace Eros",
    "brand": " Versace ",
    "notes": ["mięta", "wanilia"],
    "accords": null,
    "launch_year": 2012
  },
  {
    "name": "Dior Sauvage",
    "brand": "Dior",
    "notes": {"top": ["bergamotka"]}
  },
  {
    "name": "Unknown",
    "brand": "",
    "notes": {"notes": ["ambra"]},
    "launch_year": null
  }
]`

func TestDecode(t *testing.T) {
	refs, issues, err := Decode(strings.NewReader(dataset))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues %v", issues)
	}
	if len(refs) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(refs))
	}

	afnan := refs[0]
	if afnan.Notes.Kind() != domref.NotesTiered {
		t.Fatalf("expected tiered notes, got %s", afnan.Notes.Kind())
	}
	top, middle, base := afnan.Notes.Tiers()
	if strings.Join(top, ",") != "jabłko,cynamon" || middle[0] != "kwiat pomarańczy" || base[0] != "wanilia" {
		t.Errorf("unexpected tiers %v %v %v", top, middle, base)
	}
	wantAccords := []domref.Accord{
		{Name: "sweet", Weight: 100},
		{Name: "warm spicy", Weight: 67.35},
		{Name: "amber", Weight: 55},
	}
	if len(afnan.Accords) != len(wantAccords) {
		t.Fatalf("unexpected accords %v", afnan.Accords)
	}
	for i, a := range wantAccords {
		if afnan.Accords[i] != a {
			t.Errorf("accords[%d] = %v, want %v", i, afnan.Accords[i], a)
		}
	}
	if afnan.LaunchYear != 2020 {
		t.Errorf("expected launch year from string, got %d", afnan.LaunchYear)
	}
	if afnan.Stats.Longevity != 4.2 || afnan.Stats.Sillage != 3.5 {
		t.Errorf("unexpected stats %+v", afnan.Stats)
	}

	eros := refs[1]
	if eros.Brand != "Versace" {
		t.Errorf("expected trimmed brand, got %q", eros.Brand)
	}
	if eros.Notes.Kind() != domref.NotesFlat || len(eros.Notes.Flat()) != 2 {
		t.Errorf("expected flat notes, got %v", eros.Notes.Flat())
	}
	if eros.Accords != nil || eros.LaunchYear != 2012 {
		t.Errorf("unexpected eros %+v", eros)
	}

	if refs[2].Notes.Kind() != domref.NotesTiered {
		t.Errorf("expected top-level tiers, got %s", refs[2].Notes.Kind())
	}
	if refs[3].Notes.Kind() != domref.NotesFlat || refs[3].LaunchYear != 0 {
		t.Errorf("unexpected nested flat entry %+v", refs[3])
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"not an array":  `{"name": "x"}`,
		"truncated doc": `[{"name": "x"`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Decode(strings.NewReader(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecode_BadFieldKeepsEntry(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
		check func(t *testing.T, ref domref.Reference)
	}{
		{
			name:  "string notes",
			doc:   `[{"name": "Odd One", "brand": "Odd", "notes": "woody, amber", "launch_year": 2019}]`,
			field: "notes",
			check: func(t *testing.T, ref domref.Reference) {
				if ref.Notes.Kind() != domref.NotesNone || ref.Brand != "Odd" || ref.LaunchYear != 2019 {
					t.Errorf("unexpected entry %+v", ref)
				}
			},
		},
		{
			name:  "bad accord",
			doc:   `[{"name": "x", "accords": ["woody"], "notes": ["ambra"]}]`,
			field: "accords",
			check: func(t *testing.T, ref domref.Reference) {
				if ref.Accords != nil || ref.Notes.Kind() != domref.NotesFlat {
					t.Errorf("unexpected entry %+v", ref)
				}
			},
		},
		{
			name:  "bad weight",
			doc:   `[{"name": "x", "accords": [{"woody": "lots"}]}]`,
			field: "accords",
		},
		{
			name:  "bad year",
			doc:   `[{"name": "x", "launch_year": "soon"}]`,
			field: "launch_year",
		},
		{
			name:  "non numeric stat",
			doc:   `[{"name": "x", "stats": {"longevity": "n/a", "sillage": 3}}]`,
			field: "stats.longevity",
			check: func(t *testing.T, ref domref.Reference) {
				if ref.Stats.Longevity != 0 || ref.Stats.Sillage != 3 {
					t.Errorf("unexpected stats %+v", ref.Stats)
				}
			},
		},
		{
			name:  "brand not a string",
			doc:   `[{"name": "x", "brand": 7}]`,
			field: "brand",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, issues, err := Decode(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(refs) != 1 {
				t.Fatalf("expected the entry to be kept, got %d", len(refs))
			}
			if len(issues) != 1 || issues[0].Field != tt.field || issues[0].Index != 0 {
				t.Fatalf("expected one %s issue, got %v", tt.field, issues)
			}
			if tt.check != nil {
				tt.check(t, refs[0])
			}
		})
	}
}

func TestDecode_MalformedEntryAmongValid(t *testing.T) {
	doc := `[
	  {"name": "Dior Sauvage", "brand": "Dior", "notes": {"notes": {"top": ["bergamotka"], "base": ["ambroxan"]}}},
	  {"name": "Odd One", "notes": "woody, amber"},
	  42,
	  {"name": ["not", "a", "string"]},
	  null,
	  {"name": "Versace Eros", "brand": "Versace", "accords": [{"fresh": 80}]}
	]`

	refs, issues, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	if strings.Join(names, "|") != "Dior Sauvage|Odd One|Versace Eros" {
		t.Errorf("unexpected entries %v", names)
	}
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %v", issues)
	}
	dropped := 0
	for _, is := range issues {
		if is.Field == "" {
			dropped++
		}
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped entries, got %d", dropped)
	}

	idx := domref.NewIndex(refs)
	if _, ok := idx.Match("Dior Sauvage EDP"); !ok {
		t.Error("valid entries must stay matchable")
	}
	if ref, ok := idx.Match("Versace Eros"); !ok || len(ref.Accords) != 1 {
		t.Errorf("unexpected eros match %+v %v", ref, ok)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragrantica.json")
	if err := os.WriteFile(path, []byte(dataset), 0o600); err != nil {
		t.Fatal(err)
	}

	refs, _, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx := domref.NewIndex(refs)
	if _, ok := idx.Match("Afnan 9PM Eau de Parfum"); !ok {
		t.Error("expected match through the index")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error")
	}
}
