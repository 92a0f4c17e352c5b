package rewrite

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// urlAttributes are the attributes whose values may carry an asset URL.
var urlAttributes = map[string]struct{}{
	"href":                {},
	"src":                 {},
	"poster":              {},
	"content":             {},
	"action":              {},
	"cite":                {},
	"formaction":          {},
	"manifest":            {},
	"ping":                {},
	"archive":             {},
	"code":                {},
	"codebase":            {},
	"data":                {},
	"url":                 {},
	"srcset":              {},
	"data-src":            {},
	"data-href":           {},
	"data-url":            {},
	"data-srcset":         {},
	"data-background":     {},
	"data-image":          {},
	"data-link":           {},
	"data-poster":         {},
	"data-video":          {},
	"data-audio":          {},
	"component-url":       {},
	"astro-component-url": {},
	"sveltekit-url":       {},
	"renderer-url":        {},
	"background":          {},
	"xlink:href":          {},
}

// HTMLOptions controls RewriteHTML.
type HTMLOptions struct {
	// Mount is the concrete mount the document is served under.
	Mount string
	// Assets decides which absolute paths are moved under Mount.
	Assets *AssetPrefixSet
	// HeadInjection is raw markup inserted once before </head>.
	HeadInjection string
	// BodyInjection is raw markup inserted once before </body>.
	BodyInjection string
}

// HTMLStats reports what RewriteHTML changed.
type HTMLStats struct {
	Attributes    int
	TagsReencoded int
	HeadInjected  bool
	BodyInjected  bool
}

// RewriteHTML streams the document from src to dst, moving asset
// references under the mount and inserting the configured injections.
// Tokens that need no change are copied byte for byte.
func RewriteHTML(dst io.Writer, src io.Reader, opts HTMLOptions) (HTMLStats, error) {
	rw := &htmlRewriter{
		out:    bufio.NewWriter(dst),
		mount:  util.NormalizePath(opts.Mount),
		assets: opts.Assets,
		head:   opts.HeadInjection,
		body:   opts.BodyInjection,
	}
	if rw.assets == nil {
		rw.assets = NewAssetPrefixSet(nil)
	}
	err := rw.run(html.NewTokenizer(src))
	if flushErr := rw.out.Flush(); err == nil {
		err = flushErr
	}
	if err == nil {
		getRewriteMetrics().recordHTML(rw.stats)
	}
	return rw.stats, err
}

// RewriteHTMLString is RewriteHTML over an in-memory document.
func RewriteHTMLString(doc string, opts HTMLOptions) (string, error) {
	var buf bytes.Buffer
	buf.Grow(len(doc) + len(opts.HeadInjection) + len(opts.BodyInjection))
	if _, err := RewriteHTML(&buf, strings.NewReader(doc), opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type htmlRewriter struct {
	out    *bufio.Writer
	mount  string
	assets *AssetPrefixSet
	head   string
	body   string
	stats  HTMLStats
}

func (rw *htmlRewriter) run(z *html.Tokenizer) error {
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return err
			}
			return rw.injectBody()
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := bytes.Clone(z.Raw())
			if err := rw.startTag(z, raw, tt == html.SelfClosingTagToken); err != nil {
				return err
			}
		case html.EndTagToken:
			raw := bytes.Clone(z.Raw())
			if err := rw.endTag(z, raw); err != nil {
				return err
			}
		default:
			if _, err := rw.out.Write(z.Raw()); err != nil {
				return err
			}
		}
	}
}

func (rw *htmlRewriter) startTag(z *html.Tokenizer, raw []byte, selfClosing bool) error {
	name, hasAttr := z.TagName()
	tag := string(name)
	if tag == "body" {
		if err := rw.injectHead(); err != nil {
			return err
		}
	}
	if !hasAttr || rw.mount == "/" {
		_, err := rw.out.Write(raw)
		return err
	}

	attrs := readAttributes(z)
	if !rw.rewriteAttributes(tag, attrs) {
		_, err := rw.out.Write(raw)
		return err
	}
	rw.stats.TagsReencoded++
	return writeTag(rw.out, tag, attrs, selfClosing)
}

func (rw *htmlRewriter) endTag(z *html.Tokenizer, raw []byte) error {
	name, _ := z.TagName()
	switch string(name) {
	case "head":
		if err := rw.injectHead(); err != nil {
			return err
		}
	case "body":
		if err := rw.injectBody(); err != nil {
			return err
		}
	}
	_, err := rw.out.Write(raw)
	return err
}

func (rw *htmlRewriter) injectHead() error {
	if rw.head == "" || rw.stats.HeadInjected {
		return nil
	}
	rw.stats.HeadInjected = true
	_, err := rw.out.WriteString(rw.head)
	return err
}

func (rw *htmlRewriter) injectBody() error {
	if rw.body == "" || rw.stats.BodyInjected {
		return nil
	}
	rw.stats.BodyInjected = true
	_, err := rw.out.WriteString(rw.body)
	return err
}

type attribute struct {
	key string
	val string
}

func readAttributes(z *html.Tokenizer) []attribute {
	var attrs []attribute
	for {
		key, val, more := z.TagAttr()
		attrs = append(attrs, attribute{key: string(key), val: string(val)})
		if !more {
			return attrs
		}
	}
}

// rewriteAttributes updates attrs in place and reports whether any
// value changed.
func (rw *htmlRewriter) rewriteAttributes(tag string, attrs []attribute) bool {
	icon := tag == "link" && isIconRel(attrs)
	changed := false
	for i := range attrs {
		a := &attrs[i]
		if a.val == "" {
			continue
		}
		if _, ok := urlAttributes[a.key]; !ok {
			continue
		}

		var next string
		switch {
		case icon && a.key == "href":
			next = rw.rewriteIcon(a.val)
		case a.key == "srcset" || a.key == "data-srcset":
			next = rw.rewriteSrcset(a.val)
		default:
			next = rw.rewriteURL(a.val)
		}
		if next != a.val {
			a.val = next
			rw.stats.Attributes++
			changed = true
		}
	}
	return changed
}

func isIconRel(attrs []attribute) bool {
	for _, a := range attrs {
		if a.key == "rel" {
			rel := strings.ToLower(a.val)
			return strings.Contains(rel, "icon") || strings.Contains(rel, "shortcut")
		}
	}
	return false
}

func (rw *htmlRewriter) scoped(p string) bool {
	return strings.HasPrefix(p, rw.mount+"/")
}

func isRootRelative(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}

// rewriteURL moves an absolute asset path under the mount.
func (rw *htmlRewriter) rewriteURL(v string) string {
	if !isRootRelative(v) || rw.scoped(v) || !rw.assets.Matches(v) {
		return v
	}
	return rw.mount + v
}

// rewriteIcon moves any absolute icon path under the mount, asset
// prefix or not.
func (rw *htmlRewriter) rewriteIcon(v string) string {
	if !isRootRelative(v) || rw.scoped(v) {
		return v
	}
	return rw.mount + v
}

// rewriteSrcset rewrites each image candidate and keeps its descriptors.
func (rw *htmlRewriter) rewriteSrcset(v string) string {
	candidates := strings.Split(v, ",")
	changed := false
	for i, c := range candidates {
		parts := strings.Fields(c)
		if len(parts) == 0 {
			continue
		}
		next := rw.rewriteURL(parts[0])
		if next == parts[0] {
			continue
		}
		parts[0] = next
		candidates[i] = strings.Join(parts, " ")
		changed = true
	}
	if !changed {
		return v
	}
	for i := range candidates {
		candidates[i] = strings.TrimSpace(candidates[i])
	}
	return strings.Join(candidates, ", ")
}

func writeTag(w *bufio.Writer, tag string, attrs []attribute, selfClosing bool) error {
	w.WriteByte('<')
	w.WriteString(tag)
	for _, a := range attrs {
		w.WriteByte(' ')
		w.WriteString(a.key)
		if a.val != "" {
			w.WriteString(`="`)
			w.WriteString(html.EscapeString(a.val))
			w.WriteByte('"')
		}
	}
	if selfClosing {
		w.WriteString("/")
	}
	return w.WriteByte('>')
}
