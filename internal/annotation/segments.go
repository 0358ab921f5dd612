package annotation

import (
	"errors"

	"github.com/google/uuid"

	"github.com/heartmarshall/annotext/internal/domain"
	"github.com/heartmarshall/annotext/internal/orthography"
)

// Policy decides what happens when a word's layers do not align.
type Policy int

const (
	// AbortDocument stops building at the first mismatch.
	AbortDocument Policy = iota
	// SkipAndContinue records the mismatch, keeps the word without units
	// and goes on.
	SkipAndContinue
)

func (p Policy) String() string {
	if p == SkipAndContinue {
		return "skip_and_continue"
	}
	return "abort_document"
}

// SegmentResult is the output of SegmentBuilder.Build.
type SegmentResult struct {
	Segments    []domain.DocumentSegment
	Connections []domain.LexicalConnection
	Issues      []*domain.LayerMismatchError
}

// SegmentBuilder groups lines into document segments.
type SegmentBuilder struct {
	Policy    Policy
	Converter orthography.Converter
	// NewID generates word and segment identifiers. Defaults to uuid.New.
	NewID func() uuid.UUID
}

// Build turns lines into segments. A line with a translation closes the
// current segment; lines left over at the end form the final segment.
//
// Words are numbered from 1 across the whole document. Every lexical-root
// morpheme whose gloss appears in refs yields one LexicalConnection per
// entry key. Under AbortDocument the first *domain.LayerMismatchError is
// returned; under SkipAndContinue mismatches are collected in Issues.
func (b SegmentBuilder) Build(lines []domain.SemanticLine, meta domain.DocumentMetadata, refs References) (SegmentResult, error) {
	newID := b.NewID
	if newID == nil {
		newID = uuid.New
	}

	// An empty or unknown name reads as t/th.
	system, _ := orthography.ParseSystem(meta.Orthography)

	var (
		res       SegmentResult
		words     []domain.AnnotatedWord
		wordIndex int
	)
	closeSegment := func(translation string) {
		if len(words) == 0 && translation == "" {
			return
		}
		res.Segments = append(res.Segments, domain.DocumentSegment{
			ID:          newID(),
			Index:       len(res.Segments),
			DocumentID:  meta.ID,
			Date:        meta.Date,
			Words:       words,
			Translation: translation,
		})
		words = nil
	}

	for _, line := range lines {
		for i, w := range line.Words {
			wordIndex++
			units, err := ParseMorphemes(w.Morphemic, w.Gloss, meta.ShortName)
			if err != nil {
				var lm *domain.LayerMismatchError
				if !errors.As(err, &lm) {
					return SegmentResult{}, err
				}
				lm.DocumentShortName = meta.ShortName
				lm.Page = line.Page
				lm.WordIndex = wordIndex
				if b.Policy == AbortDocument {
					return SegmentResult{}, lm
				}
				res.Issues = append(res.Issues, lm)
				units = nil
			}

			word := domain.AnnotatedWord{
				ID:         newID(),
				Index:      wordIndex,
				Page:       line.Page,
				Source:     w.Syllabary,
				Phonetic:   w.Phonetic,
				Morphemic:  w.Morphemic,
				Gloss:      w.Gloss,
				Units:      units,
				Commentary: w.Commentary,
				EndsLine:   w.EndsLine,
				EndsPage:   line.EndsPage && i == len(line.Words)-1,
			}
			if w.Phonetic != "" {
				word.PhoneticDT = b.Converter.Convert(orthography.Transcription{Text: w.Phonetic, System: system}).Text
			}
			words = append(words, word)
			res.Connections = append(res.Connections, connections(meta.ShortName, wordIndex, units, refs)...)
		}
		if line.EndsPage && len(line.Words) == 0 {
			markPageEnd(words, res.Segments, line.Page)
		}
		if line.Translation != "" {
			closeSegment(line.Translation)
		}
	}
	closeSegment("")
	return res, nil
}

// markPageEnd flags the last word already emitted for page. It is used when
// a page ends with a translation-only line, which has no word of its own.
func markPageEnd(pending []domain.AnnotatedWord, closed []domain.DocumentSegment, page int) {
	if n := len(pending); n > 0 {
		if pending[n-1].Page == page {
			pending[n-1].EndsPage = true
		}
		return
	}
	for si := len(closed) - 1; si >= 0; si-- {
		if n := len(closed[si].Words); n > 0 {
			if closed[si].Words[n-1].Page == page {
				closed[si].Words[n-1].EndsPage = true
			}
			return
		}
	}
}

func connections(shortName string, wordIndex int, units []domain.MorphemeUnit, refs References) []domain.LexicalConnection {
	var out []domain.LexicalConnection
	for mi, u := range units {
		if ClassifyGloss(u.Gloss) != domain.GlossLexicalRoot {
			continue
		}
		for _, key := range refs.Lookup(u.Gloss) {
			out = append(out, domain.LexicalConnection{
				DocumentShortName: shortName,
				WordIndex:         wordIndex,
				MorphemeIndex:     mi,
				Gloss:             UnscopedGloss(u.Gloss),
				EntryKey:          key,
			})
		}
	}
	return out
}
