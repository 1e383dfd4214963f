package reference

import "github.com/Autilos/perfun-bot-new/internal/domain/name"

// Index maps normalized names to dataset entries. It is read-only once built
// and safe for concurrent lookups.
type Index struct {
	byName     map[string]Reference
	collisions int
}

// NewIndex builds the index. When two entries normalize to the same key the
// later one wins. Entries whose name normalizes to "" are not indexed.
func NewIndex(refs []Reference) *Index {
	idx := &Index{byName: make(map[string]Reference, len(refs))}
	for _, r := range refs {
		key := name.Normalize(r.Name)
		if key == "" {
			continue
		}
		if _, dup := idx.byName[key]; dup {
			idx.collisions++
		}
		idx.byName[key] = r
	}
	return idx
}

// Lookup returns the entry for an already normalized key. Exact match only.
func (i *Index) Lookup(key string) (Reference, bool) {
	if i == nil || key == "" {
		return Reference{}, false
	}
	r, ok := i.byName[key]
	return r, ok
}

// Match normalizes a display name and looks it up.
func (i *Index) Match(displayName string) (Reference, bool) {
	return i.Lookup(name.Normalize(displayName))
}

// Len returns the number of distinct keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byName)
}

// Collisions returns how many entries were overwritten by a later duplicate.
func (i *Index) Collisions() int {
	if i == nil {
		return 0
	}
	return i.collisions
}
