package mailbox

import (
	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func init() {
	// ASCII is a subset of UTF-8.
	ascii := unicode.UTF8
	for _, name := range []string{"ascii", "us-ascii", "ASCII", "US-ASCII"} {
		charset.RegisterEncoding(name, ascii)
	}

	for _, name := range []string{"windows-1252", "WINDOWS-1252", "cp1252", "CP1252"} {
		charset.RegisterEncoding(name, charmap.Windows1252)
	}

	for _, name := range []string{"iso-8859-1", "ISO-8859-1", "latin1", "LATIN1"} {
		charset.RegisterEncoding(name, charmap.ISO8859_1)
	}
}
