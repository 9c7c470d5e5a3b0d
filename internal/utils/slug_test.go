package utils

import "testing"

func TestValidSlug(t *testing.T) {
	valid := []string{"abc", "code-reviewer", "gpt-4-helper", "a-1"}
	for _, s := range valid {
		if !ValidSlug(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []string{"", "ab", "Has-Upper", "has space", "under_score", "中文"}
	for _, s := range invalid {
		if ValidSlug(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "al_ice", "al-ice", "Alice99"}
	for _, s := range valid {
		if !ValidUsername(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []string{"", "ab", "has space", "a@b.com"}
	for _, s := range invalid {
		if ValidUsername(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Code Reviewer":          "code-reviewer",
		"  GPT-4  Helper!  ":     "gpt-4-helper",
		"Hello, World":           "hello-world",
		"---already-slugged---":  "already-slugged",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
