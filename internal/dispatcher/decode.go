package dispatcher

import (
	"golang.org/x/text/encoding/htmlindex"
)

// guessEncodings is tried in order when the server declares no charset.
// Latin-1 comes first: it accepts any byte sequence, so it is the
// effective default for undeclared legacy pages.
var guessEncodings = []string{
	"iso-8859-1",
	"utf-8",
	"windows-1251",
	"windows-1252",
	"iso-8859-15",
	"iso-8859-9",
	"ascii",
}

// decode converts a fetched HTML body to a string, honoring the declared
// charset when one was sent and falling back to the guess list otherwise.
// As a last resort the raw bytes are interpreted as UTF-8.
func decode(body []byte, declared string) string {
	if declared != "" {
		if out, ok := decodeAs(body, declared); ok {
			return out
		}
	}

	for _, name := range guessEncodings {
		if out, ok := decodeAs(body, name); ok {
			return out
		}
	}

	return string(body)
}

func decodeAs(body []byte, name string) (string, bool) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", false
	}

	return string(out), true
}
