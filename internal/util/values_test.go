package util

import (
	"testing"

	"github.com/unkn0wn-root/ddbsession/store"
)

func TestCloneItemIsDeep(t *testing.T) {
	src := store.Item{
		"id":   "s1",
		"cart": map[string]any{"n": 1},
		"tags": []any{"a", "b"},
	}
	cp := CloneItem(src)
	cp["cart"].(map[string]any)["n"] = 2
	cp["tags"].([]any)[0] = "z"

	if src["cart"].(map[string]any)["n"] != 1 {
		t.Fatalf("nested map shared with clone")
	}
	if src["tags"].([]any)[0] != "a" {
		t.Fatalf("nested slice shared with clone")
	}
}

func TestCloneValueTypedContainers(t *testing.T) {
	tags := map[string]string{"x": "1"}
	nums := []int{1, 2}
	rows := []map[string]any{{"n": 1}}

	ct := CloneValue(tags).(map[string]string)
	cn := CloneValue(nums).([]int)
	cr := CloneValue(rows).([]map[string]any)
	ct["x"] = "changed"
	cn[0] = 9
	cr[0]["n"] = 2

	if tags["x"] != "1" {
		t.Fatalf("typed map shared with clone")
	}
	if nums[0] != 1 {
		t.Fatalf("typed slice shared with clone")
	}
	if rows[0]["n"] != 1 {
		t.Fatalf("map inside typed slice shared with clone")
	}

	var nilTags map[string]string
	if got := CloneValue(nilTags).(map[string]string); got != nil {
		t.Fatalf("nil map cloned to %v", got)
	}
	if got := CloneValue(42); got != 42 {
		t.Fatalf("scalar changed: %v", got)
	}
}

func TestEqualNormalizesNumbers(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{int8(3), float64(3), true},
		{int64(3), uint16(3), true},
		{map[string]any{"a": int8(1)}, map[string]any{"a": 1.0}, true},
		{map[any]any{"a": uint8(1)}, map[string]any{"a": 1}, true},
		{[]string{"x"}, []any{"x"}, true},
		{"1", 1, false},
		{map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{nil, nil, true},
	}
	for i, tc := range cases {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Fatalf("case %d: Equal(%v, %v)=%v want %v", i, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestRecordKeyHidesNamespace(t *testing.T) {
	k := RecordKey("rec:app", store.Key{Name: "id", Value: "secret-session"})
	if want := len("rec:app:") + 64; len(k) != want {
		t.Fatalf("len=%d want %d (%s)", len(k), want, k)
	}
	if k2 := RecordKey("rec:app", store.Key{Name: "id", Value: "other"}); k2 == k {
		t.Fatalf("distinct keys collided")
	}
}
