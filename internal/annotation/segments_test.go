package annotation

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/annotext/internal/domain"
	"github.com/heartmarshall/annotext/internal/orthography"
)

func word(phonetic, morphemic, gloss string) domain.WordLayers {
	return domain.WordLayers{Phonetic: phonetic, Morphemic: morphemic, Gloss: gloss}
}

func testMeta() domain.DocumentMetadata {
	return domain.DocumentMetadata{Title: "Letter", ShortName: "DOC1"}
}

func TestSegmentBuilder_Grouping(t *testing.T) {
	t.Parallel()

	lines := []domain.SemanticLine{
		{Page: 1, Words: []domain.WordLayers{word("tho", "a", "go")}},
		{Page: 1, Words: []domain.WordLayers{word("ka", "b", "X")}, Translation: "First."},
		{Page: 1, Words: []domain.WordLayers{word("ii", "c", "Y")}, Translation: "Second."},
		{Page: 1, Words: []domain.WordLayers{word("", "", ""), word("", "", "")}, EndsPage: true},
	}

	res, err := SegmentBuilder{}.Build(lines, testMeta(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(res.Segments))
	}

	if got := len(res.Segments[0].Words); got != 2 {
		t.Errorf("segment 0 words = %d, want 2", got)
	}
	if res.Segments[0].Translation != "First." || res.Segments[1].Translation != "Second." {
		t.Errorf("translations = %q, %q", res.Segments[0].Translation, res.Segments[1].Translation)
	}
	if res.Segments[2].Translation != "" || len(res.Segments[2].Words) != 2 {
		t.Errorf("trailing segment = %+v", res.Segments[2])
	}

	var idx []int
	for si, s := range res.Segments {
		if s.Index != si {
			t.Errorf("segment %d Index = %d", si, s.Index)
		}
		for _, w := range s.Words {
			idx = append(idx, w.Index)
		}
	}
	for i, v := range idx {
		if v != i+1 {
			t.Fatalf("word indices = %v, want 1..%d", idx, len(idx))
		}
	}

	last := res.Segments[2].Words
	if last[0].EndsPage || !last[1].EndsPage {
		t.Error("only the last word of the page-ending line is flagged")
	}
}

func TestSegmentBuilder_PhoneticDT(t *testing.T) {
	t.Parallel()

	lines := []domain.SemanticLine{{Page: 1, Words: []domain.WordLayers{word("aʔtho", "", "")}, EndsPage: true}}

	keep := SegmentBuilder{Converter: orthography.Converter{KeepGlottalStops: true}}
	res, err := keep.Build(lines, testMeta(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w := res.Segments[0].Words[0]
	if w.Phonetic != "aʔtho" || w.PhoneticDT != "aʔto" {
		t.Errorf("phonetic = %q / %q", w.Phonetic, w.PhoneticDT)
	}

	res, err = SegmentBuilder{}.Build(lines, testMeta(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Segments[0].Words[0].PhoneticDT; got != "a'to" {
		t.Errorf("PhoneticDT = %q, want %q", got, "a'to")
	}
}

func TestSegmentBuilder_AbortOnMismatch(t *testing.T) {
	t.Parallel()

	lines := []domain.SemanticLine{
		{Page: 1, Words: []domain.WordLayers{word("a", "a-b", "X-Y")}, Translation: "ok"},
		{Page: 2, Words: []domain.WordLayers{word("b", "a-b-c", "X-Y")}, EndsPage: true},
	}

	_, err := SegmentBuilder{Policy: AbortDocument}.Build(lines, testMeta(), nil)
	var lm *domain.LayerMismatchError
	if !errors.As(err, &lm) {
		t.Fatalf("err = %v, want *LayerMismatchError", err)
	}
	if lm.DocumentShortName != "DOC1" || lm.Page != 2 || lm.WordIndex != 2 {
		t.Errorf("location = %s/%d/%d", lm.DocumentShortName, lm.Page, lm.WordIndex)
	}
}

func TestSegmentBuilder_SkipAndContinue(t *testing.T) {
	t.Parallel()

	lines := []domain.SemanticLine{
		{Page: 1, Words: []domain.WordLayers{
			word("a", "a-b-c", "X-Y"),
			word("b", "a-b", "X-Y"),
			word("c", "a", "X-Y"),
		}, EndsPage: true},
	}

	res, err := SegmentBuilder{Policy: SkipAndContinue}.Build(lines, testMeta(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(res.Issues))
	}
	if res.Issues[0].WordIndex != 1 || res.Issues[1].WordIndex != 3 {
		t.Errorf("issue words = %d, %d", res.Issues[0].WordIndex, res.Issues[1].WordIndex)
	}
	words := res.Segments[0].Words
	if len(words) != 3 {
		t.Fatalf("words = %d, want 3", len(words))
	}
	if words[0].Units != nil || len(words[1].Units) != 2 {
		t.Error("mismatched word keeps no units, aligned word keeps its units")
	}
}

func TestSegmentBuilder_Connections(t *testing.T) {
	t.Parallel()

	refs := ReadReferences(domain.SheetGrid{
		{"Gloss", "Entry"},
		{"see", "CED:1234", "RRD:55"},
		{"go", "CED:77"},
	})
	lines := []domain.SemanticLine{{
		Page:     1,
		EndsPage: true,
		Words: []domain.WordLayers{
			word("", "a-gowhti-ha", "3SG-see-PRS"),
			word("", "e-ga", "go-PRS"),
			word("", "ama", "water"),
		},
	}}

	res, err := SegmentBuilder{}.Build(lines, testMeta(), refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Connections) != 3 {
		t.Fatalf("connections = %d, want 3: %+v", len(res.Connections), res.Connections)
	}
	c := res.Connections[0]
	if c.DocumentShortName != "DOC1" || c.WordIndex != 1 || c.MorphemeIndex != 1 || c.Gloss != "see" || c.EntryKey != "CED:1234" {
		t.Errorf("first connection = %+v", c)
	}
	if res.Connections[2].WordIndex != 2 || res.Connections[2].EntryKey != "CED:77" {
		t.Errorf("third connection = %+v", res.Connections[2])
	}
	if g := res.Segments[0].Words[0].Units[1].Gloss; g != "DOC1:see" {
		t.Errorf("scoped gloss = %q", g)
	}
}

func TestSegmentBuilder_IDs(t *testing.T) {
	t.Parallel()

	n := 0
	b := SegmentBuilder{NewID: func() uuid.UUID {
		n++
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(n)})
	}}
	docID := uuid.New()
	meta := testMeta()
	meta.ID = docID

	res, err := b.Build([]domain.SemanticLine{{Page: 1, Words: []domain.WordLayers{word("a", "", "")}, EndsPage: true}}, meta, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("NewID calls = %d, want 2 (one word, one segment)", n)
	}
	if res.Segments[0].DocumentID != docID {
		t.Error("segment must carry the document id")
	}
}

func TestSegmentBuilder_PhoneticAlreadyDT(t *testing.T) {
	t.Parallel()

	lines := []domain.SemanticLine{{Page: 1, Words: []domain.WordLayers{word("to", "", "")}, EndsPage: true}}

	meta := testMeta()
	meta.Orthography = "d/t"
	res, err := SegmentBuilder{}.Build(lines, meta, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Segments[0].Words[0].PhoneticDT; got != "to" {
		t.Errorf("d/t sheet PhoneticDT = %q, want %q", got, "to")
	}

	res, err = SegmentBuilder{}.Build(lines, testMeta(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Segments[0].Words[0].PhoneticDT; got != "do" {
		t.Errorf("t/th sheet PhoneticDT = %q, want %q", got, "do")
	}
}

func TestSegmentBuilder_TranslationOnlyPageEnd(t *testing.T) {
	t.Parallel()

	t.Run("after a closed segment", func(t *testing.T) {
		t.Parallel()
		lines := []domain.SemanticLine{
			{Page: 1, Words: []domain.WordLayers{word("a", "", "")}, Translation: "One."},
			{Page: 1, Translation: "Closing remark.", EndsPage: true},
		}
		res, err := SegmentBuilder{}.Build(lines, testMeta(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Segments[0].Words[0].EndsPage {
			t.Error("last word of the page must carry EndsPage")
		}
	})

	t.Run("with pending words", func(t *testing.T) {
		t.Parallel()
		lines := []domain.SemanticLine{
			{Page: 1, Words: []domain.WordLayers{word("a", "", ""), word("b", "", "")}},
			{Page: 1, Translation: "A and b.", EndsPage: true},
		}
		res, err := SegmentBuilder{}.Build(lines, testMeta(), nil)
		if err != nil {
			t.Fatal(err)
		}
		words := res.Segments[0].Words
		if words[0].EndsPage || !words[1].EndsPage {
			t.Errorf("EndsPage = %v, %v; want false, true", words[0].EndsPage, words[1].EndsPage)
		}
		if res.Segments[0].Translation != "A and b." {
			t.Errorf("translation = %q", res.Segments[0].Translation)
		}
	})

	t.Run("assembled page validates", func(t *testing.T) {
		t.Parallel()
		rows, err := ReadRows(pageGrid(
			[]string{"Ꮩ", "tho", "tho", "go", "", "", ""},
			[]string{"", "", "", "", "", "", ""},
			[]string{"", "", "", "", "Only a translation.", "", ""},
		))
		if err != nil {
			t.Fatal(err)
		}
		lines, err := AssembleLines(rows, 1)
		if err != nil {
			t.Fatal(err)
		}
		meta := testMeta()
		res, err := SegmentBuilder{}.Build(lines, meta, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := ValidateDocument(domain.NewAnnotatedDocument(meta, res.Segments)); err != nil {
			t.Errorf("ValidateDocument: %v", err)
		}
	})
}
