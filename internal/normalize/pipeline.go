// Package normalize turns raw scorestrip feed text into Score records.
//
// The feed passes through a fixed sequence of text stages before the
// structural mapper parses it. Every stage is exported so tests and callers can
// run any of them alone.
package normalize

import (
	"strings"
	"unicode/utf8"

	"spreadpool/internal/models"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// maxPaddingPasses bounds the empty-field repair loop
const maxPaddingPasses = 100

// Stage transforms feed text
type Stage func(string) string

// Mapper parses repaired feed text into scores
type Mapper func(string) ([]models.Score, error)

// Pipeline runs text stages in order and hands the result to a Mapper
type Pipeline struct {
	stages []Stage
	mapper Mapper
}

// NewPipeline builds a pipeline from explicit stages
func NewPipeline(mapper Mapper, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, mapper: mapper}
}

// DefaultPipeline is the scorestrip pipeline: padding, overtime, encoding,
// then structural mapping.
func DefaultPipeline() *Pipeline {
	return NewPipeline(MapScoreboard, PadEmptyFields, CanonicalizeOvertime, NormalizeEncoding)
}

// Normalize converts a raw feed body into scores. A malformed feed yields an
// empty list together with a *models.NormalizationError.
func (p *Pipeline) Normalize(raw []byte) ([]models.Score, error) {
	text := string(raw)
	for _, stage := range p.stages {
		text = stage(text)
	}

	scores, err := p.mapper(text)
	if err != nil {
		return []models.Score{}, err
	}
	return scores, nil
}

// PadEmptyFields rewrites collapsed empty fields (",,") as explicit zeros so
// positional columns stay aligned.
func PadEmptyFields(text string) string {
	for i := 0; i < maxPaddingPasses; i++ {
		padded := strings.ReplaceAll(text, ",,", ",0,")
		if padded == text {
			break
		}
		text = padded
	}
	return text
}

// CanonicalizeOvertime capitalizes the feed's lowercase overtime status
func CanonicalizeOvertime(text string) string {
	return strings.ReplaceAll(text, "final overtime", "Final Overtime")
}

// NormalizeEncoding makes sure the text is NFC-normalized UTF-8. Bytes that are
// not valid UTF-8 are read as Windows-1252, which is what the feed falls back
// to for accented names.
func NormalizeEncoding(text string) string {
	if !utf8.ValidString(text) {
		decoded, err := charmap.Windows1252.NewDecoder().String(text)
		if err == nil {
			text = decoded
		} else {
			text = strings.ToValidUTF8(text, "\ufffd")
		}
	}
	text = strings.TrimPrefix(text, "\ufeff")
	return norm.NFC.String(text)
}
