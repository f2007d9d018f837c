package history

import (
	"strings"
	"testing"
	"time"
)

func TestFormatListEmpty(t *testing.T) {
	if got := FormatList(nil); got != "No posts recorded yet." {
		t.Errorf("FormatList(nil) = %q", got)
	}
}

func TestFormatList(t *testing.T) {
	created := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	scheduled := time.Date(2026, time.September, 1, 9, 30, 0, 0, time.UTC)
	posts := []Post{
		{Caption: "plain caption", URL: "https://vk.com/g?w=wall-1_2", CreatedAt: created},
		{Caption: "later", URL: "https://vk.com/g?w=wall-1_3", CreatedAt: created, PublishAt: &scheduled},
	}

	got := FormatList(posts)
	for _, want := range []string{
		"*Recent posts*",
		"2026-08-20 10:00: plain caption",
		"scheduled 2026-09-01 09:30: later",
		"https://vk.com/g?w=wall-1_2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatListEscapesAndTruncates(t *testing.T) {
	posts := []Post{{
		Caption:   "a_b*c" + strings.Repeat("x", 60),
		URL:       "https://vk.com/g?w=wall-1_4",
		CreatedAt: time.Now(),
	}}
	got := FormatList(posts)
	if !strings.Contains(got, `a\_b\*c`) {
		t.Errorf("markdown specials not escaped:\n%s", got)
	}
	if !strings.Contains(got, "…") {
		t.Errorf("long caption not truncated:\n%s", got)
	}
}
