package feedcursor

import (
	"testing"

	perr "marketfeed/internal/platform/errors"
)

func TestRoundTrip(t *testing.T) {
	scope := Scope{Sort: "top", Type: "PRODUCT", Category: "ceramics"}
	in := Cursor{Scope: scope, SortKey: FloatKey(0.8125), ID: "post-42", ScoredAt: 1748779200000000000}

	token := Encode(in)
	out, err := Decode(token, scope)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
	v, err := ParseFloatKey(out)
	if err != nil || v != 0.8125 {
		t.Fatalf("ParseFloatKey = %v, %v", v, err)
	}
}

func TestDecodeRejectsForeignScope(t *testing.T) {
	minted := Scope{Sort: "top"}
	token := Encode(Cursor{Scope: minted, SortKey: "1", ID: "p1"})

	cases := []struct {
		name  string
		scope Scope
	}{
		{"different sort", Scope{Sort: "new"}},
		{"filter added", Scope{Sort: "top", Type: "SERVICE"}},
		{"category added", Scope{Sort: "top", Category: "tools"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(token, tc.scope); !perr.IsInvalidCursor(err) {
				t.Fatalf("err = %v, want invalid cursor", err)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	scope := Scope{Sort: "new"}
	for _, token := range []string{
		"",
		"!!!not base64!!!",
		"bm90IGpzb24",                // "not json"
		Encode(Cursor{Scope: scope}), // missing position
		Encode(Cursor{SortKey: "1"}), // missing id
	} {
		if _, err := Decode(token, scope); !perr.IsInvalidCursor(err) {
			t.Fatalf("token %q: err = %v, want invalid cursor", token, err)
		}
	}
}
