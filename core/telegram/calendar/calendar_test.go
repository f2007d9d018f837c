package calendar

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestCursorNextPrevRoundTrip(t *testing.T) {
	start := Cursor{Year: 2026, Month: time.August}
	cur := start
	for i := 0; i < 12; i++ {
		cur = cur.Next()
	}
	if (cur != Cursor{Year: 2027, Month: time.August}) {
		t.Errorf("12x Next() = %+v, want August 2027", cur)
	}
	for i := 0; i < 12; i++ {
		cur = cur.Prev()
	}
	if cur != start {
		t.Errorf("round trip ended at %+v, want %+v", cur, start)
	}
}

func TestCursorYearRollover(t *testing.T) {
	dec := Cursor{Year: 2026, Month: time.December}
	if next := dec.Next(); (next != Cursor{Year: 2027, Month: time.January}) {
		t.Errorf("Next(December 2026) = %+v", next)
	}
	jan := Cursor{Year: 2027, Month: time.January}
	if prev := jan.Prev(); prev != dec {
		t.Errorf("Prev(January 2027) = %+v", prev)
	}
}

func TestCursorDays(t *testing.T) {
	cases := []struct {
		cur  Cursor
		want int
	}{
		{Cursor{2026, time.February}, 28},
		{Cursor{2028, time.February}, 29},
		{Cursor{2026, time.April}, 30},
		{Cursor{2026, time.August}, 31},
	}
	for _, tc := range cases {
		if got := tc.cur.Days(); got != tc.want {
			t.Errorf("Days(%s) = %d, want %d", tc.cur.Title(), got, tc.want)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	cur := Cursor{Year: 2026, Month: time.August}
	first := Render(cur)
	second := Render(cur)
	if !reflect.DeepEqual(first, second) {
		t.Error("rendering the same cursor twice produced different grids")
	}
}

func TestRenderShape(t *testing.T) {
	cur := Cursor{Year: 2026, Month: time.August}
	grid := Render(cur)

	if len(grid) < 4 {
		t.Fatalf("grid has %d rows", len(grid))
	}
	if grid[0][0].Text != "August 2026" {
		t.Errorf("title = %q", grid[0][0].Text)
	}
	if len(grid[1]) != 7 || grid[1][0].Text != "Mo" || grid[1][6].Text != "Su" {
		t.Errorf("weekday header = %+v", grid[1])
	}

	// August 1st 2026 is a Saturday: five leading blanks before day 1.
	week := grid[2]
	if len(week) != 7 {
		t.Fatalf("first week has %d cells", len(week))
	}
	for i := 0; i < 5; i++ {
		if week[i].Text != " " || week[i].Data != "skip" {
			t.Errorf("cell %d = %+v, want blank", i, week[i])
		}
	}
	if week[5].Text != "1" {
		t.Errorf("first day cell = %+v", week[5])
	}

	var days int
	for _, row := range grid[2 : len(grid)-1] {
		if len(row) != 7 {
			t.Errorf("week row has %d cells", len(row))
		}
		for _, b := range row {
			if b.Data != "skip" {
				days++
			}
		}
	}
	if days != 31 {
		t.Errorf("grid carries %d day buttons, want 31", days)
	}

	nav := grid[len(grid)-1]
	if len(nav) != 3 || nav[0].Text != "<" || nav[2].Text != ">" {
		t.Errorf("nav row = %+v", nav)
	}
}

func TestInterpretNavigation(t *testing.T) {
	act, err := Interpret("next|2026|12")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if act.Kind != Navigate {
		t.Fatalf("kind = %v, want Navigate", act.Kind)
	}
	if (act.Cursor != Cursor{Year: 2027, Month: time.January}) {
		t.Errorf("cursor = %+v, want January 2027", act.Cursor)
	}

	act, err = Interpret("prev|2027|1")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if (act.Cursor != Cursor{Year: 2026, Month: time.December}) {
		t.Errorf("cursor = %+v, want December 2026", act.Cursor)
	}
}

func TestInterpretSelection(t *testing.T) {
	act, err := Interpret("day|2026|8|15")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if act.Kind != Selected {
		t.Fatalf("kind = %v, want Selected", act.Kind)
	}
	want := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.Local)
	if !act.Date.Equal(want) {
		t.Errorf("date = %v, want %v", act.Date, want)
	}
}

func TestInterpretIgnoresSkip(t *testing.T) {
	for _, payload := range []string{"skip", ""} {
		act, err := Interpret(payload)
		if err != nil {
			t.Fatalf("Interpret(%q): %v", payload, err)
		}
		if act.Kind != Ignore {
			t.Errorf("Interpret(%q).Kind = %v, want Ignore", payload, act.Kind)
		}
	}
}

func TestInterpretRejectsMalformed(t *testing.T) {
	cases := []string{
		"day|2026|8",
		"day|2026|13|5",
		"day|2026|2|30",
		"day|2026|8|0",
		"next|2026",
		"bogus|1|2",
		"day|x|8|1",
	}
	for _, payload := range cases {
		if _, err := Interpret(payload); err == nil {
			t.Errorf("Interpret(%q) accepted malformed payload", payload)
		}
	}
}

func TestRenderedDayPayloadsRoundTrip(t *testing.T) {
	cur := Cursor{Year: 2026, Month: time.February}
	grid := Render(cur)
	for _, row := range grid[2 : len(grid)-1] {
		for _, b := range row {
			if b.Data == "skip" {
				continue
			}
			act, err := Interpret(b.Data)
			if err != nil {
				t.Fatalf("Interpret(%q): %v", b.Data, err)
			}
			if act.Kind != Selected {
				t.Errorf("Interpret(%q).Kind = %v", b.Data, act.Kind)
			}
			if got := fmt.Sprintf("%d", act.Date.Day()); got != b.Text {
				t.Errorf("payload %q decodes to day %s, button says %s", b.Data, got, b.Text)
			}
		}
	}
}
