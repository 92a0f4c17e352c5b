package rewrite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrUnsupportedEncoding is returned by DecodeBody for a content coding
// it cannot undo.
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// Content codings understood by DecodeBody.
const (
	EncodingGzip     = "gzip"
	EncodingDeflate  = "deflate"
	EncodingBrotli   = "br"
	EncodingZstd     = "zstd"
	EncodingIdentity = "identity"
)

// DecodeBody returns a reader yielding the identity form of a body sent
// with the given Content-Encoding header value. Stacked codings are
// undone last-applied first. Closing the returned reader releases the
// decoders but not r.
func DecodeBody(r io.Reader, contentEncoding string) (io.ReadCloser, error) {
	codings := parseCodings(contentEncoding)
	chain := &decoderChain{Reader: r}
	for i := len(codings) - 1; i >= 0; i-- {
		if err := chain.push(codings[i]); err != nil {
			_ = chain.Close()
			return nil, err
		}
	}
	return chain, nil
}

// CanDecode reports whether every coding in contentEncoding is known.
func CanDecode(contentEncoding string) bool {
	for _, c := range parseCodings(contentEncoding) {
		switch c {
		case EncodingGzip, "x-gzip", EncodingDeflate, EncodingBrotli, EncodingZstd:
		default:
			return false
		}
	}
	return true
}

func parseCodings(header string) []string {
	var codings []string
	for _, part := range strings.Split(header, ",") {
		c := strings.ToLower(strings.TrimSpace(part))
		if c == "" || c == EncodingIdentity {
			continue
		}
		codings = append(codings, c)
	}
	return codings
}

type decoderChain struct {
	io.Reader
	closers []func() error
}

func (d *decoderChain) push(coding string) error {
	switch coding {
	case EncodingGzip, "x-gzip":
		zr, err := gzip.NewReader(d.Reader)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		d.Reader = zr
		d.closers = append(d.closers, zr.Close)
	case EncodingDeflate:
		rc, err := newDeflateReader(d.Reader)
		if err != nil {
			return fmt.Errorf("deflate: %w", err)
		}
		d.Reader = rc
		d.closers = append(d.closers, rc.Close)
	case EncodingBrotli:
		d.Reader = brotli.NewReader(d.Reader)
	case EncodingZstd:
		zr, err := zstd.NewReader(d.Reader)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		d.Reader = zr
		d.closers = append(d.closers, func() error {
			zr.Close()
			return nil
		})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoding, coding)
	}
	return nil
}

func (d *decoderChain) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// newDeflateReader accepts both the zlib-wrapped stream the HTTP
// "deflate" coding names and the raw deflate stream some servers send.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(header) == 2 && isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
