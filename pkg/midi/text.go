package midi

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Decode returns t.Raw as a UTF-8 string. Meta-message text is not
// guaranteed to be ASCII or valid UTF-8 in the wild — sequencers sold in
// Japan commonly wrote Shift-JIS into track names, lyrics, and markers.
// Decode trusts valid UTF-8 as-is; otherwise it tries a Shift-JIS
// transcode (the teacher's own pkg/title and pkg/script do the same for
// user-authored script text) and falls back to the raw bytes unmodified
// if that also fails to produce anything usable.
func (t Text) Decode() string {
	if utf8.Valid(t.Raw) {
		return string(t.Raw)
	}
	reader := transform.NewReader(bytes.NewReader(t.Raw), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil || len(decoded) == 0 {
		return string(t.Raw)
	}
	return string(decoded)
}
