package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeek_Validate(t *testing.T) {
	tests := []struct {
		name    string
		week    Week
		wantErr error
	}{
		{
			name: "valid week",
			week: Week{WeekNumber: 1, StartDate: date("2024-01-01"), EndDate: date("2024-01-07"), Percentage: decimal.NewFromInt(10)},
		},
		{
			name:    "zero week number",
			week:    Week{WeekNumber: 0, StartDate: date("2024-01-01"), EndDate: date("2024-01-07")},
			wantErr: ErrInvalidWeekNumber,
		},
		{
			name:    "end equals start",
			week:    Week{WeekNumber: 1, StartDate: date("2024-01-01"), EndDate: date("2024-01-01")},
			wantErr: ErrInvalidDateRange,
		},
		{
			name:    "end before start",
			week:    Week{WeekNumber: 1, StartDate: date("2024-01-07"), EndDate: date("2024-01-01")},
			wantErr: ErrInvalidDateRange,
		},
		{
			name:    "total loss",
			week:    Week{WeekNumber: 1, StartDate: date("2024-01-01"), EndDate: date("2024-01-07"), Percentage: decimal.NewFromInt(-100)},
			wantErr: ErrInvalidPercentage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.week.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWeek_Cutoff(t *testing.T) {
	w := Week{StartDate: time.Date(2024, 1, 8, 15, 30, 0, 0, time.UTC)}

	want := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	if got := w.Cutoff(); !got.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, got)
	}
}

func TestWeek_Overlaps(t *testing.T) {
	a := Week{StartDate: date("2024-01-01"), EndDate: date("2024-01-07")}
	b := Week{StartDate: date("2024-01-08"), EndDate: date("2024-01-14")}
	c := Week{StartDate: date("2024-01-07"), EndDate: date("2024-01-13")}

	if a.Overlaps(&b) || b.Overlaps(&a) {
		t.Fatal("adjacent weeks must not overlap")
	}
	if !a.Overlaps(&c) || !c.Overlaps(&a) {
		t.Fatal("weeks sharing a day must overlap")
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	in := time.Date(2024, 1, 8, 1, 0, 0, 0, loc) // 2024-01-07 22:00 UTC

	if got := Day(in); !got.Equal(date("2024-01-07")) {
		t.Fatalf("expected 2024-01-07, got %s", got)
	}
}
