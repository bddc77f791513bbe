package insight

import (
	"testing"
	"time"

	"directory-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, "No hay comentarios suficientes para generar un resumen.", Summarize(nil))
	assert.Equal(t, EmptySummary, Summarize([]CommentSample{}))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		samples  []CommentSample
		expected string
	}{
		{
			name: "excellent with keywords",
			samples: []CommentSample{
				{Text: "Excelente atención, muy rápida", Rating: 5},
				{Text: "Atención rápida y amable", Rating: 5},
				{Text: "Buena atención del notario", Rating: 4},
				{Text: "", Rating: 4},
			},
			expected: "Basado en 4 comentarios, la percepción general es excelente (calificación promedio de 4.5/5.0)." +
				" Los usuarios mencionan frecuentemente: atención, rápida, excelente.",
		},
		{
			name: "no usable keywords",
			samples: []CommentSample{
				{Text: "muy mal", Rating: 3},
				{Text: "ok", Rating: 4},
			},
			expected: "Basado en 2 comentarios, la percepción general es regular (calificación promedio de 3.5/5.0).",
		},
		{
			name: "negative",
			samples: []CommentSample{
				{Text: "Demora excesiva", Rating: 1},
				{Text: "demora y maltrato", Rating: 2},
			},
			expected: "Basado en 2 comentarios, la percepción general es negativa (calificación promedio de 1.5/5.0)." +
				" Los usuarios mencionan frecuentemente: demora, excesiva, maltrato.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.samples))
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		mean     float64
		expected string
	}{
		{5.0, "excelente"},
		{4.5, "excelente"},
		{4.49, "muy positiva"},
		{4.0, "muy positiva"},
		{3.99, "regular"},
		{3.0, "regular"},
		{2.99, "negativa"},
		{1.0, "negativa"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Label(tt.mean), "mean %v", tt.mean)
	}
}

func TestKeywords(t *testing.T) {
	t.Run("drops stop words and short tokens", func(t *testing.T) {
		kw := Keywords([]CommentSample{{Text: "para pero como este está trámite sal pan"}})
		assert.Equal(t, []string{"trámite"}, kw)
	})

	t.Run("ties keep first occurrence", func(t *testing.T) {
		kw := Keywords([]CommentSample{{Text: "zeta alfa beta gama delta"}})
		assert.Equal(t, []string{"zeta", "alfa", "beta"}, kw)
	})

	t.Run("frequency beats order", func(t *testing.T) {
		kw := Keywords([]CommentSample{
			{Text: "rapido amable"},
			{Text: "Amable, limpio; AMABLE"},
			{Text: "limpio"},
		})
		assert.Equal(t, []string{"amable", "limpio", "rapido"}, kw)
	})

	t.Run("accented words stay whole", func(t *testing.T) {
		kw := Keywords([]CommentSample{{Text: "Notaría rápida, notaría seria"}})
		assert.Equal(t, []string{"notaría", "rápida", "seria"}, kw)
	})

	t.Run("no text", func(t *testing.T) {
		assert.Empty(t, Keywords([]CommentSample{{Rating: 5}}))
	})
}

func TestMeanRating(t *testing.T) {
	assert.Equal(t, 0.0, MeanRating(nil))
	assert.InDelta(t, 3.25, MeanRating([]CommentSample{{Rating: 5}, {Rating: 4}, {Rating: 3}, {Rating: 1}}), 1e-9)
}

func TestFromRatings(t *testing.T) {
	ratings := []models.RatingSample{
		{ProviderID: 1, Score: 4, Text: "bien", CreatedAt: time.Now()},
		{ProviderID: 1, Score: 2, Text: "lento"},
	}

	assert.Equal(t, []CommentSample{{Text: "bien", Rating: 4}, {Text: "lento", Rating: 2}}, FromRatings(ratings))
}
