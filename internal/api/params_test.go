package api

import "testing"

func TestParseParams(t *testing.T) {
	got, err := ParseParams([]string{"name=Ana", "order=A=1", "empty="})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	want := []Param{{"name", "Ana"}, {"order", "A=1"}, {"empty", ""}}
	if len(got) != len(want) {
		t.Fatalf("got %d params, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("param %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseParamsRejectsMalformed(t *testing.T) {
	for _, args := range [][]string{
		{"novalue"},
		{"=x"},
		{"a=1", "a=2"},
	} {
		if _, err := ParseParams(args); err == nil {
			t.Errorf("ParseParams(%q) succeeded", args)
		}
	}
}

func TestParseParamsEmpty(t *testing.T) {
	got, err := ParseParams(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("ParseParams(nil) = %v, %v", got, err)
	}
}
