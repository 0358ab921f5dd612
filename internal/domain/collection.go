package domain

// CollectionSection places a chapter in the front matter or the body.
type CollectionSection string

const (
	SectionIntro CollectionSection = "intro"
	SectionBody  CollectionSection = "body"
)

func (s CollectionSection) IsValid() bool {
	return s == SectionIntro || s == SectionBody
}

// Chapter is a node of an edited collection's table of contents.
type Chapter struct {
	Name     string            `yaml:"name"`
	Slug     string            `yaml:"slug"`
	SheetID  string            `yaml:"sheet_id"`
	Section  CollectionSection `yaml:"section"`
	Chapters []Chapter         `yaml:"chapters"`
}

// Collection is a top-level group of documents. SheetIDs come before
// Chapters in migration order.
type Collection struct {
	Title    string    `yaml:"title"`
	Slug     string    `yaml:"slug"`
	SheetIDs []string  `yaml:"sheet_ids"`
	Chapters []Chapter `yaml:"chapters"`
}

// SheetIndex is the ordered list of collections to migrate.
type SheetIndex struct {
	Collections []Collection `yaml:"collections"`
}

// WorkItem is one sheet scheduled for migration.
type WorkItem struct {
	SheetID         string
	CollectionIndex int
	CollectionTitle string
	OrderIndex      int
}

// Worklist flattens the index into work items. Collection order, sheet order
// and chapter order (depth-first) are preserved exactly; OrderIndex counts
// documents within their collection.
func (x SheetIndex) Worklist() []WorkItem {
	var items []WorkItem
	for ci, c := range x.Collections {
		order := 0
		add := func(sheetID string) {
			if sheetID == "" {
				return
			}
			items = append(items, WorkItem{
				SheetID:         sheetID,
				CollectionIndex: ci,
				CollectionTitle: c.Title,
				OrderIndex:      order,
			})
			order++
		}
		for _, id := range c.SheetIDs {
			add(id)
		}
		var walk func(chapters []Chapter)
		walk = func(chapters []Chapter) {
			for _, ch := range chapters {
				add(ch.SheetID)
				walk(ch.Chapters)
			}
		}
		walk(c.Chapters)
	}
	return items
}
