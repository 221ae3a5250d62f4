package util

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"octocat@github.com":   "o…@g….com",
		"  Octocat@GitHub.com ": "o…@g….com",
		"a@b.io":               "a@b.io",
		"":                     "",
		"abc":                  "***",
		"noatsign":             "n…n",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("e72e16c7e42f"); got != "e…f" {
		t.Fatalf("got %q", got)
	}
	if got := MaskSecret("ab"); got != "***" {
		t.Fatalf("got %q", got)
	}
}
