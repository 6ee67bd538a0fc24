package codec

import (
	"strings"
	"testing"

	"github.com/unkn0wn-root/ddbsession/internal/util"
)

func sample() map[string]any {
	return map[string]any{
		"user":  "ada",
		"n":     42,
		"ratio": 0.5,
		"ok":    true,
		"tags":  []any{"a", "b"},
		"cart":  map[string]any{"items": 2},
		"none":  nil,
	}
}

func TestItemCodecsPreserveValues(t *testing.T) {
	cases := map[string]Codec[map[string]any]{
		"json":    JSON[map[string]any]{},
		"msgpack": Msgpack[map[string]any]{},
		"cbor":    MustCBOR[map[string]any](true),
		"proto":   ProtoStruct{},
	}
	for name, c := range cases {
		b, err := c.Encode(sample())
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if !util.Equal(got, sample()) {
			t.Fatalf("%s: got %#v", name, got)
		}
	}
}

func TestDeterministicEncodings(t *testing.T) {
	cases := map[string]Codec[any]{
		"json":    JSON[any]{},
		"msgpack": Msgpack[any]{},
		"cbor":    MustCBOR[any](true),
		"proto":   ProtoValue{},
	}
	for name, c := range cases {
		a, err := c.Encode(sample())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for i := 0; i < 5; i++ {
			b, _ := c.Encode(sample())
			if string(a) != string(b) {
				t.Fatalf("%s: encoding not stable", name)
			}
		}
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[any]{Inner: JSON[any]{}, MaxDecode: 8}
	if _, err := c.Decode([]byte(`"` + strings.Repeat("x", 16) + `"`)); err == nil {
		t.Fatalf("expected size error")
	}
	v, err := c.Decode([]byte(`"ok"`))
	if err != nil || v != "ok" {
		t.Fatalf("small payload: v=%v err=%v", v, err)
	}
}
