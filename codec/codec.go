// Package codec encodes structured values into channel payloads.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

type Encoder interface {
	// Encode writes an encoding of v to its Writer.
	Encode(v interface{}) error
}

type Decoder interface {
	// Decode reads the next encoded value from its Reader and stores it in the value pointed to by v.
	Decode(v interface{}) error
}

// Codec returns an Encoder or Decoder given a Writer or Reader.
type Codec interface {
	Encoder(w io.Writer) Encoder
	Decoder(r io.Reader) Decoder
}

// Codecs maps codec names to the builtin codecs.
var Codecs = map[string]Codec{
	"json": JSONCodec{},
	"cbor": CBORCodec{},
}

// ByName returns the codec registered in Codecs under name.
func ByName(name string) (Codec, error) {
	c, ok := Codecs[name]
	if !ok {
		names := make([]string, 0, len(Codecs))
		for n := range Codecs {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("codec '%s' not in available codecs %v", name, names)
	}
	return c, nil
}

// Marshal encodes v into a single payload.
func Marshal(c Codec, v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one payload into the value pointed to by v.
func Unmarshal(c Codec, b []byte, v interface{}) error {
	return c.Decoder(bytes.NewReader(b)).Decode(v)
}
