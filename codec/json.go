package codec

import (
	"encoding/json"
	"io"
)

// JSONCodec encodes payloads as JSON without escaping HTML characters.
type JSONCodec struct{}

// Encoder returns a JSON encoder writing one value per line.
func (c JSONCodec) Encoder(w io.Writer) Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Decoder returns a JSON decoder. Numbers decoded into interface values
// keep their literal form as json.Number.
func (c JSONCodec) Decoder(r io.Reader) Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec
}
