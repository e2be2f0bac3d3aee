package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// DayNames are the plan's day keys, Monday first.
var DayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// RestDay is the workout for a day the plan leaves blank.
const RestDay = "Rest"

// ErrEmptyPlan is returned for a plan with no weeks.
var ErrEmptyPlan = errors.New("training plan has no weeks")

// Week maps a day name to its workout.
type Week map[string]string

// Workout returns the workout for day, or RestDay.
func (w Week) Workout(day string) string {
	if workout, ok := w[day]; ok && workout != "" {
		return workout
	}
	return RestDay
}

// Plan is an ordered list of training weeks.
type Plan struct {
	Name  string
	Weeks []Week
}

// Load reads a plan stored as a JSON array of weeks.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of weeks.
func Parse(data []byte) (*Plan, error) {
	var weeks []Week
	if err := json.Unmarshal(data, &weeks); err != nil {
		return nil, fmt.Errorf("decode training plan: %w", err)
	}
	if len(weeks) == 0 {
		return nil, ErrEmptyPlan
	}
	return &Plan{Weeks: weeks}, nil
}

// Status is where a runner stands in the plan on a given day.
type Status struct {
	Summary   string    `json:"summary"`
	Workout   string    `json:"workout,omitempty"`
	Week      int       `json:"week,omitempty"`
	Day       string    `json:"day,omitempty"`
	StartDate string    `json:"start_date"`
	RaceDay   string    `json:"race_day"`
	DaysLeft  int       `json:"days_left"`
	Progress  float64   `json:"progress"`
	Date      time.Time `json:"-"`
}

// Today reports the plan entry for now given the plan started on start.
// Only calendar dates matter; times of day are ignored.
func (p *Plan) Today(start, now time.Time) Status {
	start = dateOf(start)
	today := dateOf(now)
	total := len(p.Weeks) * 7
	race := start.AddDate(0, 0, total)

	days := daysBetween(start, today)
	st := Status{
		StartDate: start.Format(time.DateOnly),
		RaceDay:   race.Format(time.DateOnly),
		DaysLeft:  max(daysBetween(today, race), 0),
		Progress:  min(max(float64(days)/float64(total), 0), 1),
		Date:      today,
	}

	switch {
	case days < 0:
		st.Summary = "Plan hasn't started yet"
	case days/7 >= len(p.Weeks):
		st.Summary = "Plan completed"
	default:
		st.Week = days/7 + 1
		st.Day = DayNames[days%7]
		st.Workout = p.Weeks[days/7].Workout(st.Day)
		st.Summary = fmt.Sprintf("Week %d, %s: %s", st.Week, st.Day, st.Workout)
	}
	return st
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
