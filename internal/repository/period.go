package repository

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date form used by range filters.
	DateLayout = "2006-01-02"
	// TimestampLayout is the stored form of every event timestamp.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Period is a validated calendar month.
type Period struct {
	Month int
	Year  int
}

// NewPeriod validates mes/ano against the accepted ranges (1-12, 2000-2100).
func NewPeriod(mes, ano int) (Period, error) {
	if mes < 1 || mes > 12 {
		return Period{}, fmt.Errorf("%w: mes must be 1-12, got %d", ErrInvalidPeriod, mes)
	}
	if ano < 2000 || ano > 2100 {
		return Period{}, fmt.Errorf("%w: ano must be 2000-2100, got %d", ErrInvalidPeriod, ano)
	}
	return Period{Month: mes, Year: ano}, nil
}

// Bounds returns the half-open interval [start, end) as date strings.
// Stored timestamps are "YYYY-MM-DD HH:MM:SS", so lexical comparison against
// a bare date puts "YYYY-MM-DD 00:00:00" after "YYYY-MM-DD": timestamp >= start
// includes the first instant of the month and timestamp < end excludes the
// first instant of the next one.
func (p Period) Bounds() (start, end string) {
	start = fmt.Sprintf("%04d-%02d-01", p.Year, p.Month)
	nextMonth, nextYear := p.Month+1, p.Year
	if nextMonth > 12 {
		nextMonth = 1
		nextYear++
	}
	end = fmt.Sprintf("%04d-%02d-01", nextYear, nextMonth)
	return start, end
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
