package mapper

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

// Codec recodes text between the local store's charset and the UTF-8 the
// remote calendar requires.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// NewCodec returns a codec for a WHATWG encoding label such as "utf-8",
// "iso-2022-jp" or "shift_jis".
func NewCodec(charset string) (*Codec, error) {
	if charset == "" {
		charset = "utf-8"
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.NewValidationError("store_charset", charset, "unknown character encoding")
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(charset)
	}
	return &Codec{name: name, enc: enc}, nil
}

// UTF8 returns the identity codec.
func UTF8() *Codec {
	return &Codec{name: "utf-8", enc: unicode.UTF8}
}

// Name returns the canonical charset name.
func (c *Codec) Name() string {
	return c.name
}

// ToRemote decodes local-store text into NFC-normalized UTF-8.
func (c *Codec) ToRemote(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	out, err := c.enc.NewDecoder().String(s)
	if err != nil {
		return "", errors.WrapParse(c.name, s, err)
	}
	return norm.NFC.String(out), nil
}

// ToLocal encodes UTF-8 text into the local store's charset.
func (c *Codec) ToLocal(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	out, err := encoding.HTMLEscapeUnsupported(c.enc.NewEncoder()).String(s)
	if err != nil {
		return "", errors.WrapParse(c.name, s, err)
	}
	return out, nil
}

// HeaderSafe collapses embedded line breaks into single spaces so the text
// can be stored in a one-line header field.
func HeaderSafe(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' })
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
}
