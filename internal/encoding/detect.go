// Package encoding turns bank exports of unknown charset into UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const peekSize = 4096

// Charset names reported by Reader.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO8859_15  = "ISO-8859-15"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Reader yields UTF-8 and remembers which charset the source was decoded from.
type Reader struct {
	io.Reader
	Charset string
}

// NewUTF8Reader sniffs the first bytes of r and returns a decoding reader.
//
// Order: BOM, valid UTF-8, chardet heuristics, then Windows-1252 as the last
// resort since that is what Spanish bank portals emit when they do not say.
func NewUTF8Reader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, peekSize)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return &Reader{Reader: br, Charset: UTF8}, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decoded(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), UTF16LE), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decoded(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), UTF16BE), nil
	case validPrefix(buf):
		return &Reader{Reader: br, Charset: UTF8}, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return &Reader{Reader: br, Charset: UTF8}, nil
		case "ISO-8859-1", "windows-1252":
			return decoded(br, charmap.Windows1252, Windows1252), nil
		case "ISO-8859-15", "ISO-8859-9":
			return decoded(br, charmap.ISO8859_15, ISO8859_15), nil
		}
	}

	return decoded(br, charmap.Windows1252, Windows1252), nil
}

func decoded(r io.Reader, enc encoding.Encoding, name string) *Reader {
	return &Reader{Reader: transform.NewReader(r, enc.NewDecoder()), Charset: name}
}

// validPrefix reports whether buf is UTF-8, tolerating a multi-byte rune cut
// off at the end of the peek window.
func validPrefix(buf []byte) bool {
	for i := 0; i < utf8.UTFMax && len(buf) > 0; i++ {
		if utf8.Valid(buf) {
			return true
		}

		if len(buf) < peekSize {
			return false
		}

		buf = buf[:len(buf)-1]
	}

	return utf8.Valid(buf)
}
