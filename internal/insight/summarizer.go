// Package insight builds a short Spanish narrative out of a provider's
// customer comments.
package insight

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"directory-workers/internal/models"
)

// EmptySummary is returned when there are no comments to summarize.
const EmptySummary = "No hay comentarios suficientes para generar un resumen."

const (
	maxKeywords     = 3
	minKeywordRunes = 4
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// The stop-word list is fixed Spanish; there is no locale parameter.
var stopWords = map[string]struct{}{
	"de": {}, "la": {}, "que": {}, "el": {}, "en": {}, "y": {}, "a": {}, "los": {},
	"se": {}, "del": {}, "las": {}, "un": {}, "por": {}, "con": {}, "no": {}, "una": {},
	"su": {}, "para": {}, "es": {}, "al": {}, "lo": {}, "como": {}, "mas": {}, "pero": {},
	"sus": {}, "le": {}, "ya": {}, "o": {}, "fue": {}, "este": {}, "muy": {}, "son": {},
	"está": {}, "ha": {}, "me": {}, "mi": {}, "nos": {},
}

// CommentSample is the part of a rating the summarizer reads.
type CommentSample struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// FromRatings converts rating samples into comment samples.
func FromRatings(ratings []models.RatingSample) []CommentSample {
	out := make([]CommentSample, len(ratings))
	for i, r := range ratings {
		out[i] = CommentSample{Text: r.Text, Rating: r.Score}
	}
	return out
}

// Summarize returns the narrative for samples, or EmptySummary if there are none.
func Summarize(samples []CommentSample) string {
	if len(samples) == 0 {
		return EmptySummary
	}

	mean := MeanRating(samples)

	var b strings.Builder
	fmt.Fprintf(&b, "Basado en %d comentarios, la percepción general es %s (calificación promedio de %.1f/5.0).",
		len(samples), Label(mean), mean)

	if kw := Keywords(samples); len(kw) > 0 {
		fmt.Fprintf(&b, " Los usuarios mencionan frecuentemente: %s.", strings.Join(kw, ", "))
	}
	return b.String()
}

// MeanRating is the arithmetic mean of the sample ratings, 0 when empty.
func MeanRating(samples []CommentSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := 0
	for _, s := range samples {
		total += s.Rating
	}
	return float64(total) / float64(len(samples))
}

// Label buckets a mean rating into a perception label.
func Label(mean float64) string {
	switch {
	case mean >= 4.5:
		return "excelente"
	case mean >= 4.0:
		return "muy positiva"
	case mean >= 3.0:
		return "regular"
	default:
		return "negativa"
	}
}

// Keywords returns up to three of the most frequent non stop-word tokens
// longer than three characters. Ties keep first-occurrence order.
func Keywords(samples []CommentSample) []string {
	texts := make([]string, 0, len(samples))
	for _, s := range samples {
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
	}
	corpus := strings.ToLower(strings.Join(texts, " "))

	counts := map[string]int{}
	var order []string
	for _, tok := range wordPattern.FindAllString(corpus, -1) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if utf8.RuneCountInString(tok) < minKeywordRunes {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}
