// Package calendar renders an inline month picker and interprets its
// button callbacks. The grid itself is transport-agnostic; Markup converts
// it to a telebot inline keyboard.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallpostbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// CallbackKey is the callback unique under which calendar buttons report.
const CallbackKey = "cal"

const (
	payloadSkip = "skip"
	payloadDay  = "day"
	payloadPrev = "prev"
	payloadNext = "next"
)

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Cursor identifies the month currently shown by the picker.
type Cursor struct {
	Year  int
	Month time.Month
}

// CursorFor returns the cursor for the month containing t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Next returns the cursor advanced by one month, rolling over the year.
func (c Cursor) Next() Cursor {
	if c.Month == time.December {
		return Cursor{Year: c.Year + 1, Month: time.January}
	}
	return Cursor{Year: c.Year, Month: c.Month + 1}
}

// Prev returns the cursor moved back by one month, rolling over the year.
func (c Cursor) Prev() Cursor {
	if c.Month == time.January {
		return Cursor{Year: c.Year - 1, Month: time.December}
	}
	return Cursor{Year: c.Year, Month: c.Month - 1}
}

// Title returns the human readable header, e.g. "August 2026".
func (c Cursor) Title() string {
	return fmt.Sprintf("%s %d", c.Month.String(), c.Year)
}

// Days returns the number of days in the cursor month.
func (c Cursor) Days() int {
	return time.Date(c.Year, c.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns midnight local time of the given day within the cursor month.
func (c Cursor) Date(day int) time.Time {
	return time.Date(c.Year, c.Month, day, 0, 0, 0, 0, time.Local)
}

// Button is a single cell of the rendered grid.
type Button struct {
	Text string
	Data string
}

// Grid is the button matrix of one rendered month.
type Grid [][]Button

// Render builds the month grid: header, weekday row, week rows padded with
// blanks, and a navigation row. Rendering the same cursor twice produces
// identical grids.
func Render(c Cursor) Grid {
	grid := Grid{
		{{Text: c.Title(), Data: payloadSkip}},
	}

	week := make([]Button, 0, 7)
	for _, wd := range weekdayHeader {
		week = append(week, Button{Text: wd, Data: payloadSkip})
	}
	grid = append(grid, week)

	blank := Button{Text: " ", Data: payloadSkip}
	// Monday-first offset of day 1.
	offset := (int(time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).Weekday()) + 6) % 7
	days := c.Days()

	row := make([]Button, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, blank)
	}
	for day := 1; day <= days; day++ {
		row = append(row, Button{
			Text: strconv.Itoa(day),
			Data: fmt.Sprintf("%s|%d|%d|%d", payloadDay, c.Year, int(c.Month), day),
		})
		if len(row) == 7 {
			grid = append(grid, row)
			row = make([]Button, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, blank)
		}
		grid = append(grid, row)
	}

	nav := []Button{
		{Text: "<", Data: fmt.Sprintf("%s|%d|%d", payloadPrev, c.Year, int(c.Month))},
		{Text: " ", Data: payloadSkip},
		{Text: ">", Data: fmt.Sprintf("%s|%d|%d", payloadNext, c.Year, int(c.Month))},
	}
	grid = append(grid, nav)

	return grid
}

// ActionKind classifies an interpreted calendar callback.
type ActionKind int

const (
	// Ignore means the pressed control carries no action (header, blanks).
	Ignore ActionKind = iota
	// Navigate means the picker should redraw with Action.Cursor.
	Navigate
	// Selected means the user picked Action.Date (midnight local).
	Selected
)

// Action is the interpretation of one calendar button press.
type Action struct {
	Kind   ActionKind
	Cursor Cursor
	Date   time.Time
}

// Interpret decodes a calendar callback payload into an Action.
func Interpret(payload string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(payload), "|")
	switch parts[0] {
	case payloadSkip, "":
		return Action{Kind: Ignore}, nil
	case payloadPrev, payloadNext:
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("calendar: malformed navigation payload %q", payload)
		}
		cur, err := parseCursor(parts[1], parts[2])
		if err != nil {
			return Action{}, fmt.Errorf("calendar: %w", err)
		}
		if parts[0] == payloadPrev {
			cur = cur.Prev()
		} else {
			cur = cur.Next()
		}
		return Action{Kind: Navigate, Cursor: cur}, nil
	case payloadDay:
		if len(parts) != 4 {
			return Action{}, fmt.Errorf("calendar: malformed day payload %q", payload)
		}
		cur, err := parseCursor(parts[1], parts[2])
		if err != nil {
			return Action{}, fmt.Errorf("calendar: %w", err)
		}
		day, err := strconv.Atoi(parts[3])
		if err != nil || day < 1 || day > cur.Days() {
			return Action{}, fmt.Errorf("calendar: day %q outside %s", parts[3], cur.Title())
		}
		return Action{Kind: Selected, Cursor: cur, Date: cur.Date(day)}, nil
	}
	return Action{}, fmt.Errorf("calendar: unknown payload %q", payload)
}

func parseCursor(yearStr, monthStr string) (Cursor, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Cursor{}, fmt.Errorf("bad year %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return Cursor{}, fmt.Errorf("bad month %q", monthStr)
	}
	return Cursor{Year: year, Month: time.Month(month)}, nil
}

// Markup converts a grid into a telebot inline keyboard under CallbackKey.
func Markup(g Grid) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(g))
	for _, row := range g {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{Text: b.Text, Unique: CallbackKey, Data: b.Data})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}
