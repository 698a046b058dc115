package escpos

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Substitute replaces every character the printer code page cannot show.
const Substitute = '?'

var (
	BoldOn  = []byte{0x1B, 0x45, 0x01}
	BoldOff = []byte{0x1B, 0x45, 0x00}
)

const lineFeed = 0x0A

// Encode converts text to Windows-1250, one byte per code point. Characters
// outside the code page, and invalid UTF-8, become Substitute.
func Encode(text string) []byte {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size

		if r == utf8.RuneError && size <= 1 {
			out = append(out, Substitute)
			continue
		}

		b, ok := charmap.Windows1250.EncodeRune(r)
		if !ok {
			b = Substitute
		}
		out = append(out, b)
	}
	return out
}

// Frame wraps an encoded payload in the bold on/off sequences.
func Frame(payload []byte) []byte {
	buf := make([]byte, 0, len(BoldOn)+len(payload)+len(BoldOff))
	buf = append(buf, BoldOn...)
	buf = append(buf, payload...)
	return append(buf, BoldOff...)
}

// Feed is n line feeds.
func Feed(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = lineFeed
	}
	return buf
}
