package migrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/annotext/internal/domain"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// events records limiter waits and fetches in call order.
type events struct {
	log []string
}

func (e *events) add(s string) { e.log = append(e.log, s) }

type fakeLimiter struct {
	ev    *events
	waits int
	err   error
}

func (l *fakeLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.err != nil {
		return l.err
	}
	l.waits++
	l.ev.add("wait")
	return nil
}

type fakeSource struct {
	ev     *events
	sheets map[string]map[string]domain.SheetGrid
	errs   map[string]error // key: sheetID/tab
	// onFetch runs before every fetch.
	onFetch func(sheetID, tab string)
}

func newFakeSource(ev *events) *fakeSource {
	return &fakeSource{
		ev:     ev,
		sheets: make(map[string]map[string]domain.SheetGrid),
		errs:   make(map[string]error),
	}
}

func (s *fakeSource) FetchSheet(_ context.Context, sheetID, tab string) (domain.SheetGrid, error) {
	s.ev.add("fetch " + sheetID + "/" + tab)
	if s.onFetch != nil {
		s.onFetch(sheetID, tab)
	}
	if err, ok := s.errs[sheetID+"/"+tab]; ok {
		return nil, err
	}
	tabs, ok := s.sheets[sheetID]
	if !ok {
		return nil, &domain.FetchError{SheetID: sheetID, Tab: tab, Err: domain.ErrSheetNotFound}
	}
	grid, ok := tabs[tab]
	if !ok {
		return nil, &domain.FetchError{SheetID: sheetID, Tab: tab, Err: domain.ErrSheetNotFound}
	}
	return grid, nil
}

type fakeStore struct {
	calls       []string
	collections map[string]uuid.UUID
	documentIDs map[string]uuid.UUID
	documents   []*domain.AnnotatedDocument
	relations   []domain.LexicalConnection
	rollbacks   int

	insertDocumentErr error
	contentsErr       error
	relationsErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: make(map[string]uuid.UUID),
		documentIDs: make(map[string]uuid.UUID),
	}
}

// RunInTx restores collections, document rows and contents when fn fails.
func (s *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	collections := maps.Clone(s.collections)
	documentIDs := maps.Clone(s.documentIDs)
	documents := len(s.documents)
	if err := fn(ctx); err != nil {
		s.collections = collections
		s.documentIDs = documentIDs
		s.documents = s.documents[:documents]
		s.rollbacks++
		return err
	}
	return nil
}

func (s *fakeStore) InsertTopCollection(_ context.Context, title string, orderIndex int) (uuid.UUID, error) {
	s.calls = append(s.calls, fmt.Sprintf("collection %s %d", title, orderIndex))
	id := uuid.New()
	s.collections[title] = id
	return id, nil
}

func (s *fakeStore) InsertDocument(_ context.Context, meta domain.DocumentMetadata, _ uuid.UUID, orderIndex int) (uuid.UUID, error) {
	s.calls = append(s.calls, fmt.Sprintf("document %s %d", meta.ShortName, orderIndex))
	if s.insertDocumentErr != nil {
		return uuid.Nil, s.insertDocumentErr
	}
	id := uuid.New()
	s.documentIDs[meta.ShortName] = id
	return id, nil
}

func (s *fakeStore) InsertDocumentContents(_ context.Context, doc *domain.AnnotatedDocument) error {
	s.calls = append(s.calls, "contents "+doc.Meta.ShortName)
	if s.contentsErr != nil {
		return s.contentsErr
	}
	s.documents = append(s.documents, doc)
	return nil
}

func (s *fakeStore) InsertMorphemeRelations(_ context.Context, conns []domain.LexicalConnection) (int, error) {
	s.calls = append(s.calls, fmt.Sprintf("relations %d", len(conns)))
	if s.relationsErr != nil {
		return 0, s.relationsErr
	}
	s.relations = append(s.relations, conns...)
	return len(conns), nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var contentHeader = []string{"Syllabary", "Phonetic", "Morphemic", "Gloss", "Translation", "Commentary", "Page"}

// addDocument registers a one-page document sheet. A broken document has a
// word whose layers do not align.
func addDocument(src *fakeSource, sheetID string, broken bool) {
	gloss := "3SG-see"
	if broken {
		gloss = "3SG"
	}
	src.sheets[sheetID] = map[string]domain.SheetGrid{
		MetadataTab:   {{"Title", "Title " + sheetID}, {"Document ID", strings.ToUpper(sheetID)}},
		ReferencesTab: {{"Gloss", "Entry"}, {"see", "CED:1"}},
		"": {
			contentHeader,
			{"Ꭰ", "atho", "a-gowhti", gloss, "He saw it.", "", ""},
			{"Ꭴ", "u", "u", "it", "", "", "x"},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fiveItemIndex() domain.SheetIndex {
	return domain.SheetIndex{Collections: []domain.Collection{
		{Title: "Letters", SheetIDs: []string{"s1", "s2", "s3"}},
		{Title: "Stories", SheetIDs: []string{"s4", "s5"}},
	}}
}

func setup(brokenItem string) (*events, *fakeSource, *fakeStore, *fakeLimiter) {
	ev := &events{}
	src := newFakeSource(ev)
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5"} {
		addDocument(src, id, id == brokenItem)
	}
	return ev, src, newFakeStore(), &fakeLimiter{ev: ev}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRun_ValidateAttemptsEveryItem(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("s3")
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeValidate, fiveItemIndex())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantStates := []ItemState{StateValidated, StateValidated, StateFailed, StateValidated, StateValidated}
	for i, want := range wantStates {
		if got := report.Items[i].State; got != want {
			t.Errorf("item %d state = %v, want %v", i+1, got, want)
		}
	}
	if !report.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Item.SheetID != "s3" {
		t.Fatalf("failed = %+v", failed)
	}
	if !errors.Is(failed[0].Err, domain.ErrLayerMismatch) {
		t.Errorf("failure = %v, want ErrLayerMismatch", failed[0].Err)
	}
	if len(failed[0].Issues) != 1 || failed[0].Issues[0].DocumentShortName != "S3" {
		t.Errorf("issues = %+v", failed[0].Issues)
	}
	if len(store.calls) != 0 {
		t.Errorf("validation run touched the store: %v", store.calls)
	}
}

func TestRun_CommitStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("s3")
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeCommit, fiveItemIndex())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantStates := []ItemState{StateCommitted, StateCommitted, StateFailed, StatePending, StatePending}
	for i, want := range wantStates {
		if got := report.Items[i].State; got != want {
			t.Errorf("item %d state = %v, want %v", i+1, got, want)
		}
	}
	if !report.Aborted {
		t.Error("Aborted = false, want true")
	}

	wantCalls := []string{
		"collection Letters 0",
		"document S1 0",
		"contents S1",
		"document S2 1",
		"contents S2",
		"relations 2",
	}
	if strings.Join(store.calls, "|") != strings.Join(wantCalls, "|") {
		t.Errorf("store calls =\n%v\nwant\n%v", store.calls, wantCalls)
	}
	if report.Relations != 2 {
		t.Errorf("Relations = %d, want 2", report.Relations)
	}
	for _, doc := range store.documents {
		if !doc.HasID() {
			t.Errorf("document %s persisted without id", doc.Meta.ShortName)
		}
		for _, seg := range doc.Segments {
			if seg.DocumentID != doc.Meta.ID {
				t.Errorf("segment of %s not stamped with document id", doc.Meta.ShortName)
			}
		}
	}
}

func TestRun_CommitAllItems(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("")
	m := NewMigrator(testLogger(), src, store, lim, Config{KeepGlottalStops: true})

	report, err := m.Run(context.Background(), ModeCommit, fiveItemIndex())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.HasErrors() || report.Count(StateCommitted) != 5 {
		t.Fatalf("report = %+v", report)
	}
	if len(store.collections) != 2 {
		t.Errorf("collections = %d, want 2", len(store.collections))
	}
	if store.calls[len(store.calls)-1] != "relations 5" {
		t.Errorf("last call = %q, want relations flush", store.calls[len(store.calls)-1])
	}
	if got := store.documents[3].Meta.OrderIndex; got != 0 {
		t.Errorf("first document of second collection OrderIndex = %d, want 0", got)
	}
	if w := store.documents[0].Segments[0].Words[0]; w.PhoneticDT != "ato" {
		t.Errorf("PhoneticDT = %q, want %q", w.PhoneticDT, "ato")
	}
}

func TestRun_EveryFetchFollowsAWait(t *testing.T) {
	t.Parallel()

	ev, src, store, lim := setup("")
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	if _, err := m.Run(context.Background(), ModeValidate, fiveItemIndex()); err != nil {
		t.Fatal(err)
	}

	fetches := 0
	for i, e := range ev.log {
		if !strings.HasPrefix(e, "fetch") {
			continue
		}
		fetches++
		if i == 0 || ev.log[i-1] != "wait" {
			t.Fatalf("fetch %q at %d not preceded by a wait: %v", e, i, ev.log)
		}
	}
	// Metadata, References and one page per document.
	if fetches != 15 || lim.waits != 15 {
		t.Errorf("fetches=%d waits=%d, want 15 each", fetches, lim.waits)
	}
}

func TestRun_MultiPageDocument(t *testing.T) {
	t.Parallel()

	ev := &events{}
	src := newFakeSource(ev)
	page := func(word string) domain.SheetGrid {
		return domain.SheetGrid{contentHeader, {"", word, "", "", "", "", ""}}
	}
	src.sheets["m1"] = map[string]domain.SheetGrid{
		MetadataTab: {{"Title", "Two pages"}, {"Short name", "TP"}, {"Image IDs", "i1", "i2"}},
		"Page 1":    page("tha"),
		"Page 2":    page("kho"),
	}
	m := NewMigrator(testLogger(), src, nil, &fakeLimiter{ev: ev}, Config{})

	report, err := m.Run(context.Background(), ModeValidate, domain.SheetIndex{Collections: []domain.Collection{
		{Title: "C", SheetIDs: []string{"m1"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	out := report.Items[0]
	if out.State != StateValidated {
		t.Fatalf("state = %v, err = %v", out.State, out.Err)
	}
	if out.Words != 2 {
		t.Errorf("words = %d, want 2", out.Words)
	}

	var fetched []string
	for _, e := range ev.log {
		if strings.HasPrefix(e, "fetch ") {
			fetched = append(fetched, strings.TrimPrefix(e, "fetch "))
		}
	}
	want := "m1/Metadata,m1/References,m1/Page 1,m1/Page 2"
	if strings.Join(fetched, ",") != want {
		t.Errorf("fetched = %v, want %s", fetched, want)
	}
}

func TestRun_FetchFailure(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("")
	src.errs["s2/Metadata"] = errors.New("connection reset")
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeValidate, fiveItemIndex())
	if err != nil {
		t.Fatal(err)
	}
	failed := report.Failed()
	if len(failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(failed))
	}
	var fe *domain.FetchError
	if !errors.As(failed[0].Err, &fe) || fe.SheetID != "s2" || fe.Tab != MetadataTab {
		t.Errorf("err = %v, want FetchError for s2/Metadata", failed[0].Err)
	}
}

func TestRun_MetadataFailureCarriesSheetID(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("")
	src.sheets["s1"][MetadataTab] = domain.SheetGrid{{"Title", "No short name"}}
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeValidate, fiveItemIndex())
	if err != nil {
		t.Fatal(err)
	}
	var me *domain.MetadataError
	if !errors.As(report.Items[0].Err, &me) || me.SheetID != "s1" {
		t.Errorf("err = %v, want MetadataError for s1", report.Items[0].Err)
	}
}

func TestRun_MissingReferencesTab(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("")
	delete(src.sheets["s1"], ReferencesTab)
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeValidate, fiveItemIndex())
	if err != nil {
		t.Fatal(err)
	}
	if report.Items[0].State != StateValidated || report.Items[0].Connections != 0 {
		t.Errorf("item = %+v", report.Items[0])
	}
}

func TestRun_PersistenceFailure(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("")
	store.contentsErr = errors.New("deadlock detected")
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeCommit, fiveItemIndex())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Aborted || report.Items[0].State != StateFailed || report.Items[1].State != StatePending {
		t.Fatalf("report = %+v", report.Items)
	}
	var pe *domain.PersistenceError
	if !errors.As(report.Items[0].Err, &pe) || pe.Op != "insert document contents" {
		t.Errorf("err = %v", report.Items[0].Err)
	}
	if !errors.Is(report.Items[0].Err, domain.ErrPersistence) {
		t.Error("err must match ErrPersistence")
	}
	for _, c := range store.calls {
		if strings.HasPrefix(c, "relations") {
			t.Error("no relations to flush when nothing was committed")
		}
	}
	if store.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", store.rollbacks)
	}
	if len(store.documentIDs) != 0 || len(store.collections) != 0 {
		t.Errorf("failed document left rows: documents=%v collections=%v", store.documentIDs, store.collections)
	}
}

func TestRun_RelationFlushFailure(t *testing.T) {
	t.Parallel()

	_, src, store, lim := setup("")
	store.relationsErr = errors.New("boom")
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(context.Background(), ModeCommit, fiveItemIndex())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if report.Count(StateCommitted) != 5 {
		t.Errorf("committed = %d, want 5", report.Count(StateCommitted))
	}
}

func TestRun_CancelBetweenItems(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, src, store, lim := setup("")
	// Cancel while the second item is being fetched: it still completes.
	src.onFetch = func(sheetID, tab string) {
		if sheetID == "s2" && tab == ReferencesTab {
			cancel()
		}
	}
	m := NewMigrator(testLogger(), src, store, lim, Config{})

	report, err := m.Run(ctx, ModeCommit, fiveItemIndex())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !report.Cancelled {
		t.Error("Cancelled = false")
	}
	wantStates := []ItemState{StateCommitted, StateCommitted, StatePending, StatePending, StatePending}
	for i, want := range wantStates {
		if got := report.Items[i].State; got != want {
			t.Errorf("item %d state = %v, want %v", i+1, got, want)
		}
	}
	if len(store.relations) != 2 {
		t.Errorf("relations flushed = %d, want 2", len(store.relations))
	}
}

func TestRun_CommitWithoutStore(t *testing.T) {
	t.Parallel()

	_, src, _, lim := setup("")
	m := NewMigrator(testLogger(), src, nil, lim, Config{})
	if _, err := m.Run(context.Background(), ModeCommit, fiveItemIndex()); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestPageTab(t *testing.T) {
	t.Parallel()

	if PageTab(1, 1) != "" {
		t.Error("single page uses the first tab")
	}
	if PageTab(2, 3) != "Page 2" {
		t.Errorf("PageTab(2, 3) = %q", PageTab(2, 3))
	}
}

func TestLoadIndex_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.yaml")
	doc := "collections:\n  - title: Letters\n    sheet_ids: [s1, s2]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	ev := &events{}
	lim := &fakeLimiter{ev: ev}
	m := NewMigrator(testLogger(), newFakeSource(ev), nil, lim, Config{IndexFile: path})

	index, err := m.LoadIndex(context.Background())
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(index.Worklist()) != 2 {
		t.Errorf("worklist = %+v", index.Worklist())
	}
	if lim.waits != 0 {
		t.Error("manifest must not spend fetch budget")
	}
}

func TestLoadIndex_Sheet(t *testing.T) {
	t.Parallel()

	ev := &events{}
	src := newFakeSource(ev)
	src.sheets["idx"] = map[string]domain.SheetGrid{
		"": {{"Collection", "Sheets"}, {"Letters", "s1"}, {"Stories", "s2", "s3"}},
	}
	lim := &fakeLimiter{ev: ev}
	m := NewMigrator(testLogger(), src, nil, lim, Config{IndexSheetID: "idx"})

	index, err := m.LoadIndex(context.Background())
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(index.Collections) != 2 || len(index.Worklist()) != 3 {
		t.Errorf("index = %+v", index)
	}
	if lim.waits != 1 {
		t.Errorf("waits = %d, want 1", lim.waits)
	}
}

func TestLoadIndex_NotConfigured(t *testing.T) {
	t.Parallel()

	ev := &events{}
	m := NewMigrator(testLogger(), newFakeSource(ev), nil, &fakeLimiter{ev: ev}, Config{})
	if _, err := m.LoadIndex(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
