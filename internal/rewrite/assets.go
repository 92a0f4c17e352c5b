package rewrite

import (
	"regexp"
	"strings"
	"sync"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// DefaultAssetPrefixes are always part of an AssetPrefixSet.
var DefaultAssetPrefixes = []string{
	"/assets/",
	"/static/",
	"/build/",
	"/_astro/",
	"/_next/",
	"/fonts/",
}

// AssetPrefixSet is an immutable, de-duplicated list of normalized
// asset path prefixes of the form "/x/".
type AssetPrefixSet struct {
	prefixes []string
	index    map[string]struct{}

	cssOnce sync.Once
	cssRe   *regexp.Regexp
}

// NewAssetPrefixSet merges extra into the default prefixes. Entries are
// trimmed and normalized; blank entries and the bare root are ignored.
func NewAssetPrefixSet(extra []string) *AssetPrefixSet {
	s := &AssetPrefixSet{
		prefixes: make([]string, 0, len(DefaultAssetPrefixes)+len(extra)),
		index:    make(map[string]struct{}, len(DefaultAssetPrefixes)+len(extra)),
	}
	for _, p := range DefaultAssetPrefixes {
		s.add(p)
	}
	for _, p := range extra {
		s.add(p)
	}
	return s
}

func (s *AssetPrefixSet) add(raw string) {
	p := util.NormalizePrefix(raw)
	if p == "" || p == "/" {
		return
	}
	if _, ok := s.index[p]; ok {
		return
	}
	s.index[p] = struct{}{}
	s.prefixes = append(s.prefixes, p)
}

// Prefixes returns a copy of the prefixes in insertion order.
func (s *AssetPrefixSet) Prefixes() []string {
	out := make([]string, len(s.prefixes))
	copy(out, s.prefixes)
	return out
}

// Len returns the number of prefixes.
func (s *AssetPrefixSet) Len() int { return len(s.prefixes) }

// Has reports whether prefix, once normalized, is a member.
func (s *AssetPrefixSet) Has(prefix string) bool {
	_, ok := s.index[util.NormalizePrefix(prefix)]
	return ok
}

// Matches reports whether path starts with one of the prefixes.
func (s *AssetPrefixSet) Matches(path string) bool {
	for _, p := range s.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// cssPattern matches url( followed by optional whitespace, an optional
// quote and an absolute asset path. Group 1 is the quote, group 2 the
// asset prefix.
func (s *AssetPrefixSet) cssPattern() *regexp.Regexp {
	s.cssOnce.Do(func() {
		alts := make([]string, len(s.prefixes))
		for i, p := range s.prefixes {
			alts[i] = regexp.QuoteMeta(strings.Trim(p, "/"))
		}
		s.cssRe = regexp.MustCompile(`url\(\s*(['"]?)(/(?:` + strings.Join(alts, "|") + `)/)`)
	})
	return s.cssRe
}
