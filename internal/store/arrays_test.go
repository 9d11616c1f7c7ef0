package store

import (
	"reflect"
	"testing"
)

func TestParseTextArray(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "{}", want: []string{}},
		{name: "single", raw: "{ABC-100}", want: []string{"ABC-100"}},
		{name: "multiple", raw: "{A,B,C}", want: []string{"A", "B", "C"}},
		{name: "quoted with comma", raw: `{"widget, large",B}`, want: []string{"widget, large", "B"}},
		{name: "quoted with escaped quote", raw: `{"say \"hi\""}`, want: []string{`say "hi"`}},
		{name: "unquoted null becomes empty", raw: "{A,NULL,B}", want: []string{"A", "", "B"}},
		{name: "quoted NULL stays literal", raw: `{"NULL"}`, want: []string{"NULL"}},
		{name: "numeric text", raw: "{10,2.5,0}", want: []string{"10", "2.5", "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTextArray(tc.raw)
			if err != nil {
				t.Fatalf("parseTextArray(%q): %v", tc.raw, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseTextArray(%q) = %#v, want %#v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseTextArrayRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "A,B", "{A,B", "A,B}"} {
		if _, err := parseTextArray(raw); err == nil {
			t.Fatalf("parseTextArray(%q) should fail", raw)
		}
	}
}

func TestTextArrayScanNil(t *testing.T) {
	var dest []string
	if err := (textArray{&dest}).Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if len(dest) != 0 {
		t.Fatalf("scan nil should yield empty slice, got %#v", dest)
	}
}
