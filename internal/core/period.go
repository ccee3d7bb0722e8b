package core

import (
	"fmt"
	"time"
)

// WindowMonths is the length of the rare-expense projection window
const WindowMonths = 12

// YearMonth identifies a calendar month
type YearMonth struct {
	Year  int
	Month int // 1-12
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Add moves ym forward by n months, wrapping year boundaries
func (ym YearMonth) Add(n int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Window is an ordered run of consecutive months
type Window []YearMonth

// NewWindow returns n consecutive months starting at the month containing asOf
func NewWindow(asOf time.Time, n int) Window {
	start := YearMonthOf(asOf)
	w := make(Window, n)
	for i := range w {
		w[i] = start.Add(i)
	}
	return w
}

// Index returns the zero-based position of ym in the window, or -1
func (w Window) Index(ym YearMonth) int {
	for i, m := range w {
		if m == ym {
			return i
		}
	}
	return -1
}

func (w Window) Contains(ym YearMonth) bool {
	return w.Index(ym) >= 0
}
