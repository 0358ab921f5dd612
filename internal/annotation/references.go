package annotation

import "github.com/heartmarshall/annotext/internal/domain"

// References maps a normalized lexical gloss to the external entry keys it
// refers to.
type References map[string][]string

// Lookup returns the entry keys recorded for gloss. Scope prefixes are ignored.
func (r References) Lookup(gloss string) []string {
	if r == nil {
		return nil
	}
	return r[domain.NormalizeKey(UnscopedGloss(gloss))]
}

// Len returns the number of distinct glosses.
func (r References) Len() int { return len(r) }

// ReadReferences reads a References tab: one row per gloss, the gloss in the
// first column and entry keys in the following ones. An optional header row
// whose first cell is "gloss" is skipped. Repeated glosses accumulate keys;
// glosses without any key are left out.
func ReadReferences(grid domain.SheetGrid) References {
	refs := make(References)
	for r := range grid {
		gloss := domain.NormalizeKey(grid.Cell(r, 0))
		if gloss == "" || (r == 0 && gloss == "gloss") {
			continue
		}
		for c := 1; c < len(grid[r]); c++ {
			if key := grid.Cell(r, c); key != "" {
				refs[gloss] = append(refs[gloss], key)
			}
		}
	}
	return refs
}
