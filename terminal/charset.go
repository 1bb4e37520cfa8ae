package terminal

import (
	"os"
	"strings"

	gencoding "github.com/gdamore/encoding"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Single-byte character sets usable on non-UTF-8 terminals. Multi-byte
// legacy encodings are not supported: input is decoded byte by byte
var charsets = map[string]encoding.Encoding{
	"iso8859-1":  gencoding.ISO8859_1,
	"iso8859-9":  gencoding.ISO8859_9,
	"iso8859-2":  charmap.ISO8859_2,
	"iso8859-3":  charmap.ISO8859_3,
	"iso8859-4":  charmap.ISO8859_4,
	"iso8859-5":  charmap.ISO8859_5,
	"iso8859-7":  charmap.ISO8859_7,
	"iso8859-10": charmap.ISO8859_10,
	"iso8859-13": charmap.ISO8859_13,
	"iso8859-14": charmap.ISO8859_14,
	"iso8859-15": charmap.ISO8859_15,
	"iso8859-16": charmap.ISO8859_16,
	"koi8-r":     charmap.KOI8R,
	"koi8-u":     charmap.KOI8U,
	"cp1252":     charmap.Windows1252,
	"us-ascii":   gencoding.ASCII,
	"ascii":      gencoding.ASCII,
}

// normalizeCharsetName folds the common spellings ("ISO-8859-1", "8859-1",
// "latin1") onto the table keys
func normalizeCharsetName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "latin1", "l1":
		return "iso8859-1"
	case "latin5", "l5":
		return "iso8859-9"
	case "latin9":
		return "iso8859-15"
	case "646", "iso646":
		return "us-ascii"
	case "utf8":
		return "utf-8"
	}
	n = strings.TrimPrefix(n, "iso-")
	n = strings.TrimPrefix(n, "iso")
	if strings.HasPrefix(n, "8859") {
		return "iso" + n
	}
	return n
}

// LookupCharset returns the encoding for a character set name. A nil
// encoding with ok true means UTF-8, which needs no translation
func LookupCharset(name string) (enc encoding.Encoding, ok bool) {
	n := normalizeCharsetName(name)
	if n == "" || n == "utf-8" {
		return nil, true
	}
	enc, ok = charsets[n]
	return enc, ok
}

// localeCharset derives the codeset from LC_ALL, LC_CTYPE and LANG, first
// set wins. The C and POSIX locales are treated as UTF-8: terminals in
// those locales are overwhelmingly UTF-8 capable
func localeCharset() string {
	locale := ""
	if locale = os.Getenv("LC_ALL"); locale == "" {
		if locale = os.Getenv("LC_CTYPE"); locale == "" {
			locale = os.Getenv("LANG")
		}
	}
	if locale == "" || locale == "POSIX" || locale == "C" {
		return "UTF-8"
	}
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		return locale[i+1:]
	}
	return "UTF-8"
}

// byteTable maps the upper half of a single-byte charset to runes
type byteTable [128]rune

func newByteTable(enc encoding.Encoding) *byteTable {
	var t byteTable
	dec := enc.NewDecoder()
	for i := range t {
		out, err := dec.Bytes([]byte{byte(0x80 + i)})
		r := []rune(string(out))
		if err != nil || len(r) != 1 {
			t[i] = rune(0x80 + i)
			continue
		}
		t[i] = r[0]
	}
	return &t
}

// encodeText converts UTF-8 output to the charset, replacing
// unrepresentable characters
func encodeText(enc encoding.Encoding, s string) []byte {
	if enc == nil {
		return []byte(s)
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
