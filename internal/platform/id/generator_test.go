package id

import (
	"regexp"
	"testing"
)

func TestForEntityIsStable(t *testing.T) {
	t.Parallel()

	gen := NewDeterministicGenerator()
	first := gen.ForEntity("player", "123")
	second := gen.ForEntity("player", "123")
	if first != second {
		t.Fatalf("expected stable id, got %q then %q", first, second)
	}
}

func TestForEntityShape(t *testing.T) {
	t.Parallel()

	uuidShape := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	gen := NewDeterministicGenerator()
	got := gen.ForEntity("club", "133604")
	if !uuidShape.MatchString(got) {
		t.Fatalf("id %q does not match uuid shape", got)
	}
}

func TestForEntityVariesByType(t *testing.T) {
	t.Parallel()

	gen := NewDeterministicGenerator()
	if gen.ForEntity("club", "42") == gen.ForEntity("player", "42") {
		t.Fatalf("expected distinct ids for distinct entity types")
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Manchester City", want: "manchester-city"},
		{name: "punctuation", in: "St. Pauli F.C.", want: "st-pauli-fc"},
		{name: "separator runs", in: "Real   Madrid__CF", want: "real-madrid-cf"},
		{name: "edges", in: " -Ajax- ", want: "ajax"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tc.in); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSuffixSlug(t *testing.T) {
	t.Parallel()

	if got := SuffixSlug("city-fc", "133613"); got != "city-fc-133613" {
		t.Fatalf("unexpected suffixed slug %q", got)
	}
	if got := SuffixSlug("", "133613"); got != "133613" {
		t.Fatalf("unexpected slug for empty base %q", got)
	}
}
