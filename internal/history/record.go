package history

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrRecordNotFound = errors.New("training record not found")
	ErrInvalidDate    = errors.New("invalid date")
)

// Record is one exercise done on a calendar day.
type Record struct {
	ID        int       `json:"id"`
	UserID    string    `json:"-"`
	Date      string    `json:"date"`
	Exercise  string    `json:"exercise"`
	Sets      int       `json:"sets"`
	Reps      int       `json:"reps"`
	Weight    int       `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
}

type DaySummary struct {
	Date    string   `json:"date"`
	Records []Record `json:"records"`
}

// ParseDate reads a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today is the calendar date of now in the local time zone.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func monthRange(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 || year < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("%04d-%02d: %w", year, month, ErrInvalidDate)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), nil
}

// summarize groups records, ordered by date, into one entry per day.
func summarize(records []Record) []DaySummary {
	days := make([]DaySummary, 0)
	for _, rec := range records {
		if len(days) == 0 || days[len(days)-1].Date != rec.Date {
			days = append(days, DaySummary{Date: rec.Date, Records: []Record{}})
		}
		last := &days[len(days)-1]
		last.Records = append(last.Records, rec)
	}
	return days
}
