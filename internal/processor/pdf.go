package processor

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultName is the processor used when no --processor flag is given.
const DefaultName = "pdf"

// Scoring constants.
const (
	// keywordHitScore is added once per keyword found in the document's
	// descriptive metadata (title, subject, keywords).
	keywordHitScore = 10

	// minDistanceFactor stops page scanning once the per-page weight has
	// decayed below this threshold.
	minDistanceFactor = 0.01
)

func init() {
	Register(DefaultName, func(keywords []string) Processor {
		return &PDFProcessor{keywords: keywords}
	})
}

// PDFProcessor extracts metadata from a PDF's info dictionary and scores
// the document against the crawl keywords. Keywords found in the title,
// subject or keyword metadata score highest; occurrences in page text
// count with a weight that halves on every page, so matches near the
// front of the document dominate.
type PDFProcessor struct {
	keywords []string
}

// Process scores body. The underlying PDF library panics on malformed
// structures; panics are recovered into an error so a broken document
// never takes down a worker.
func (p *PDFProcessor) Process(body []byte, mime string) (relevancy float64, metadata map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf processing panic: %v", r)
		}
	}()

	metadata = make(map[string]any)

	if mime != "application/pdf" {
		metadata[MetaRelevancy] = 0.0
		return 0, metadata, nil
	}

	reader, readerErr := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if readerErr != nil {
		return 0, nil, fmt.Errorf("open pdf: %w", readerErr)
	}

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		for _, key := range info.Keys() {
			value := info.Key(key)
			if value.Kind() == pdf.String || value.Kind() == pdf.Name {
				metadata["/"+key] = value.Text()
			}
		}
	}
	metadata[MetaNumPages] = reader.NumPage()

	relevancy = p.scoreMetadata(metadata) + p.scorePages(reader)

	// Relevancy is significant to the nearest tenth.
	relevancy = math.Round(relevancy*10) / 10
	metadata[MetaRelevancy] = relevancy

	return relevancy, metadata, nil
}

// scoreMetadata awards a fixed score per keyword present in the
// descriptive metadata fields.
func (p *PDFProcessor) scoreMetadata(metadata map[string]any) float64 {
	var parts []string
	for _, key := range []string{MetaTitle, MetaSubject, MetaKeywords} {
		if v, ok := metadata[key].(string); ok {
			parts = append(parts, v)
		}
	}
	relevant := strings.ToLower(strings.Join(parts, " "))

	var score float64
	for _, word := range p.keywords {
		if word != "" && strings.Contains(relevant, strings.ToLower(word)) {
			score += keywordHitScore
		}
	}

	return score
}

// scorePages counts keyword occurrences in page text, weighting each page
// half as much as the one before it.
func (p *PDFProcessor) scorePages(reader *pdf.Reader) float64 {
	var score float64
	factor := 1.0

	for i := 1; i <= reader.NumPage(); i++ {
		if factor < minDistanceFactor {
			break
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			factor /= 2
			continue
		}

		text, textErr := page.GetPlainText(nil)
		if textErr != nil {
			factor /= 2
			continue
		}

		lower := strings.ToLower(text)
		for _, word := range p.keywords {
			if word == "" {
				continue
			}
			score += factor * float64(strings.Count(lower, strings.ToLower(word)))
		}

		factor /= 2
	}

	return score
}
