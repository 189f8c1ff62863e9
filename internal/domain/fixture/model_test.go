package fixture

import (
	"testing"
	"time"
)

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Status
	}{
		{in: "", want: StatusNotStarted},
		{in: "Not Started", want: StatusNotStarted},
		{in: "Match Finished", want: StatusFinished},
		{in: "FT", want: StatusFinished},
		{in: "AET", want: StatusFinished},
		{in: "Halftime", want: StatusHalftime},
		{in: "Postponed", want: StatusPostponed},
		{in: "Cancelled", want: StatusPostponed},
		{in: "Abandoned", want: StatusAbandoned},
		{in: "34'", want: StatusLive},
		{in: "2H", want: StatusLive},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSeasonLabel(t *testing.T) {
	t.Parallel()

	december := time.Date(2025, time.December, 10, 0, 0, 0, 0, time.UTC)
	if got := SeasonLabel(december); got != "2025-2026" {
		t.Fatalf("SeasonLabel(dec 2025) = %q, want 2025-2026", got)
	}

	august := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	if got := SeasonLabel(august); got != "2026-2027" {
		t.Fatalf("SeasonLabel(aug 2026) = %q, want 2026-2027", got)
	}

	july := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)
	if got := SeasonLabel(july); got != "2025-2026" {
		t.Fatalf("SeasonLabel(jul 2026) = %q, want 2025-2026", got)
	}
}
