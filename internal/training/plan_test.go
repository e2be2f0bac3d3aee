package training

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoWeeks = `[
  {"Tue": "3 mi run", "Wed": "3 mi run", "Sat": "6 mi long run", "Sun": "Cross"},
  {"Mon": "", "Tue": "3 mi run", "Wed": "4 mi pace", "Sat": "7 mi long run"}
]`

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestPlan_Today(t *testing.T) {
	plan, err := Parse([]byte(twoWeeks))
	require.NoError(t, err)
	start := day("2025-03-03")

	tests := []struct {
		name    string
		now     time.Time
		summary string
		week    int
		left    int
	}{
		{"before start", day("2025-03-02"), "Plan hasn't started yet", 0, 15},
		{"first day defaults to rest", day("2025-03-03"), "Week 1, Mon: Rest", 1, 14},
		{"long run", day("2025-03-08"), "Week 1, Sat: 6 mi long run", 1, 9},
		{"blank entry is rest", day("2025-03-10"), "Week 2, Mon: Rest", 2, 7},
		{"second week", day("2025-03-12"), "Week 2, Wed: 4 mi pace", 2, 5},
		{"time of day ignored", time.Date(2025, 3, 12, 23, 59, 0, 0, time.UTC), "Week 2, Wed: 4 mi pace", 2, 5},
		{"last day", day("2025-03-16"), "Week 2, Sun: Rest", 2, 1},
		{"after the plan", day("2025-03-17"), "Plan completed", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := plan.Today(start, tt.now)
			assert.Equal(t, tt.summary, st.Summary)
			assert.Equal(t, tt.week, st.Week)
			assert.Equal(t, tt.left, st.DaysLeft)
			assert.Equal(t, "2025-03-17", st.RaceDay)
		})
	}
}

func TestPlan_Progress(t *testing.T) {
	plan, err := Parse([]byte(twoWeeks))
	require.NoError(t, err)
	start := day("2025-03-03")

	assert.Zero(t, plan.Today(start, day("2025-02-01")).Progress)
	assert.InDelta(t, 0.5, plan.Today(start, day("2025-03-10")).Progress, 1e-9)
	assert.Equal(t, 1.0, plan.Today(start, day("2025-06-01")).Progress)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmptyPlan)

	_, err = Parse([]byte(`{"Mon": "Rest"}`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(twoWeeks), 0o600))

	plan, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, plan.Weeks, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoad_BundledPlan(t *testing.T) {
	plan, err := Load(filepath.Join("..", "..", "data", "training_plan.json"))
	require.NoError(t, err)
	assert.Len(t, plan.Weeks, 18)
	assert.Equal(t, "Marathon", plan.Weeks[17].Workout("Sun"))
}

func TestHandler_Today(t *testing.T) {
	gin.SetMode(gin.TestMode)
	plan, err := Parse([]byte(twoWeeks))
	require.NoError(t, err)

	h := NewHandler(plan)
	h.now = func() time.Time { return day("2025-03-08") }
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))

	tests := []struct {
		url     string
		code    int
		summary string
	}{
		{"/api/v1/training/today?start=2025-03-03", http.StatusOK, "Week 1, Sat: 6 mi long run"},
		{"/api/v1/training/today?start=2025-03-09", http.StatusOK, "Plan hasn't started yet"},
		{"/api/v1/training/today?start=03/03/2025", http.StatusBadRequest, ""},
		{"/api/v1/training/today", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, tt.code, w.Code)
			if tt.summary == "" {
				return
			}

			var resp common.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			data := resp.Data.(map[string]interface{})
			assert.Equal(t, tt.summary, data["summary"])
		})
	}
}
