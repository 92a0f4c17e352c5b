package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAssetPrefixSet_Defaults(t *testing.T) {
	t.Parallel()

	s := NewAssetPrefixSet(nil)
	assert.Equal(t, DefaultAssetPrefixes, s.Prefixes())
	assert.Equal(t, 6, s.Len())
	assert.True(t, s.Has("/_next/"))
	assert.True(t, s.Has("_next"))
}

func TestNewAssetPrefixSet_MergesAndNormalizes(t *testing.T) {
	t.Parallel()

	s := NewAssetPrefixSet([]string{"media", " /media/ ", "/assets", "", "   ", "/", "cdn/img"})

	assert.Equal(t, []string{
		"/assets/", "/static/", "/build/", "/_astro/", "/_next/", "/fonts/",
		"/media/", "/cdn/img/",
	}, s.Prefixes())
	assert.True(t, s.Has("/media/"))
	assert.False(t, s.Has("/"))
}

func TestAssetPrefixSet_Matches(t *testing.T) {
	t.Parallel()

	s := NewAssetPrefixSet([]string{"/media"})

	tests := []struct {
		path string
		want bool
	}{
		{path: "/assets/app.js", want: true},
		{path: "/_next/static/chunk.js", want: true},
		{path: "/media/logo.svg", want: true},
		{path: "/_nextjs/app.js", want: false},
		{path: "/assets", want: false},
		{path: "/about", want: false},
		{path: "assets/app.js", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Matches(tt.path))
		})
	}
}

func TestAssetPrefixSet_PrefixesIsCopy(t *testing.T) {
	t.Parallel()

	s := NewAssetPrefixSet(nil)
	p := s.Prefixes()
	p[0] = "/mutated/"

	assert.Equal(t, "/assets/", s.Prefixes()[0])
}
