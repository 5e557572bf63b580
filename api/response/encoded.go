package response

import (
	"strings"

	"github.com/tinylib/msgp/msgp"
)

type FastJSON interface {
	MarshalJSONFast([]byte) ([]byte, error)
}

type Picklable interface {
	Pickle([]byte) ([]byte, error)
}

// Encodable can be rendered in every Format
type Encodable interface {
	FastJSON
	msgp.Marshaler
	Picklable
}

// Format is a wire format for summary listings
type Format string

const (
	FormatJSON   Format = "json"
	FormatMsgp   Format = "msgp"
	FormatPickle Format = "pickle"
)

// ParseFormat resolves a requested format. The empty string means json.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, true
	case "msgp", "msgpack":
		return FormatMsgp, true
	case "pickle":
		return FormatPickle, true
	}
	return "", false
}

func (f Format) ContentType() string {
	switch f {
	case FormatMsgp:
		return "application/msgpack"
	case FormatPickle:
		return "application/pickle"
	}
	return "application/json"
}

// Encoded is a response that appends its body into a pooled buffer
type Encoded struct {
	code        int
	contentType string
	enc         func([]byte) ([]byte, error)
	buf         []byte
}

func newEncoded(code int, contentType string, enc func([]byte) ([]byte, error)) *Encoded {
	return &Encoded{
		code:        code,
		contentType: contentType,
		enc:         enc,
		buf:         BufferPool.Get(),
	}
}

// NewEncoded renders body in format f
func NewEncoded(code int, f Format, body Encodable) *Encoded {
	switch f {
	case FormatMsgp:
		return NewMsgp(code, body)
	case FormatPickle:
		return NewPickle(code, body)
	}
	return NewFastJson(code, body)
}

func NewFastJson(code int, body FastJSON) *Encoded {
	return newEncoded(code, FormatJSON.ContentType(), body.MarshalJSONFast)
}

func NewMsgp(code int, body msgp.Marshaler) *Encoded {
	return newEncoded(code, FormatMsgp.ContentType(), body.MarshalMsg)
}

func NewPickle(code int, body Picklable) *Encoded {
	return newEncoded(code, FormatPickle.ContentType(), body.Pickle)
}

func (r *Encoded) Code() int {
	return r.code
}

func (r *Encoded) Close() {
	BufferPool.Put(r.buf)
}

func (r *Encoded) Body() ([]byte, error) {
	var err error
	r.buf, err = r.enc(r.buf)
	return r.buf, err
}

func (r *Encoded) Headers() map[string]string {
	return map[string]string{"content-type": r.contentType}
}
