package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty", "", ""},
		{"noise and punctuation", "Brand NEW Apple iPhone 12 - Free UK Shipping!", "apple iphone 12"},
		{"parenthesised noise", "Sony WH-1000XM4 (Sealed)", "sony wh 1000xm4"},
		{"whole words only", "Newton Cradle Freestyle", "newton cradle freestyle"},
		{"collapses whitespace", "  Nintendo   Switch\tOLED  ", "nintendo switch oled"},
		{"only noise", "New Sealed Boxed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.title))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("Genuine Apple AirPods Pro (2nd Gen) - UK Warranty")
	assert.Equal(t, once, Normalize(once))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("apple iphone", "apple iphone"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 0.0, Similarity("abc", ""))

	a, b := "apple iphone 12 pro", "apple iphone 12 pro max"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-12)
	assert.InDelta(t, 2*19.0/42.0, Similarity(a, b), 1e-9)
}
