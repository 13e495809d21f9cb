package codec

import (
	"bytes"
	"encoding/json"
	"testing"
)

type testData struct {
	Map map[string]bool
	Arr []int
}

func TestJSONCodec(t *testing.T) {
	c := &JSONCodec{}
	var buf bytes.Buffer

	if err := c.Encoder(&buf).Encode(testData{
		Map: map[string]bool{"true": true, "false": false},
		Arr: []int{1, 2, 3},
	}); err != nil {
		t.Fatal(err)
	}

	var data testData
	if err := c.Decoder(&buf).Decode(&data); err != nil {
		t.Fatal(err)
	}

	if data.Map["true"] != true || data.Arr[2] != 3 {
		t.Fatal("unexpected data:", data)
	}
}

func TestMarshal(t *testing.T) {
	for name := range Codecs {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			if err != nil {
				t.Fatal(err)
			}
			b, err := Marshal(c, testData{Arr: []int{4, 5}})
			if err != nil {
				t.Fatal(err)
			}
			var data testData
			if err := Unmarshal(c, b, &data); err != nil {
				t.Fatal(err)
			}
			if len(data.Arr) != 2 || data.Arr[1] != 5 {
				t.Fatal("unexpected data:", data)
			}
		})
	}
}

func TestCBORIsCompact(t *testing.T) {
	b, err := Marshal(CBORCodec{}, uint8(7))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{0x07}) {
		t.Fatalf("unexpected encoding: %x", b)
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("msgpack"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestCBORStringMaps(t *testing.T) {
	b, err := Marshal(CBORCodec{}, map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	var v interface{}
	if err := Unmarshal(CBORCodec{}, b, &v); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(map[string]interface{}); !ok {
		t.Fatalf("unexpected map type %T", v)
	}
}

func TestJSONCodecPayloads(t *testing.T) {
	b, err := Marshal(JSONCodec{}, map[string]interface{}{"html": "<a&b>", "big": uint64(1) << 60})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("<a&b>")) {
		t.Fatalf("unexpected escaping: %s", b)
	}

	var v map[string]interface{}
	if err := Unmarshal(JSONCodec{}, b, &v); err != nil {
		t.Fatal(err)
	}
	n, ok := v["big"].(json.Number)
	if !ok || n.String() != "1152921504606846976" {
		t.Fatalf("unexpected number: %#v", v["big"])
	}
}
