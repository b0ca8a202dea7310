package qa

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Why does my car overheat?", "why-does-my-car-overheat"},
		{"  Crème brûlée -- recipe  ", "creme-brulee-recipe"},
		{"Go 1.25: what's new", "go-1-25-what-s-new"},
		{"Почему не заводится машина", "почему-не-заводится-машина"},
		{"???", "question"},
		{"", "question"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.title), tt.title)
	}
}

func TestSlugifyTruncates(t *testing.T) {
	slug := Slugify(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, utf8.RuneCountInString(slug), maxSlugLen)
	assert.False(t, strings.HasSuffix(slug, "-"))
	assert.Equal(t, slug, Slugify(strings.Repeat("word ", 40)))
}
