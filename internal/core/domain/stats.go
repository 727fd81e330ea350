package domain

type Streaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ChallengeBreakdown counts, per sub-condition, the days it held on its own.
type ChallengeBreakdown struct {
	IndoorWorkout  int `json:"workout1"`
	OutdoorWorkout int `json:"workout2"`
	Diet           int `json:"diet"`
	Reading        int `json:"reading"`
	Photos         int `json:"photos"`
	Water          int `json:"water"`
	Meditation     int `json:"meditation"`
}

type ChallengeStats struct {
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	Month          int                `json:"month,omitempty"`
	Year           int                `json:"year,omitempty"`
	TotalDays      int                `json:"total_days"`
	CompletedDays  int                `json:"completed_days"`
	CompletionRate float64            `json:"completion_rate"`
	Breakdown      ChallengeBreakdown `json:"habit_breakdown"`
}

type HabitCategoryStat struct {
	HabitID        string  `json:"habit_id"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon"`
	ColorClass     string  `json:"color_class"`
	CompletedDays  int     `json:"completed_days"`
	CompletionRate float64 `json:"completion_rate"`
}

type HabitCategoryStats struct {
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Month      int                 `json:"month,omitempty"`
	Year       int                 `json:"year,omitempty"`
	TotalDays  int                 `json:"total_days"`
	HabitStats []HabitCategoryStat `json:"habits"`
}

type HeatmapDay struct {
	Date       string `json:"date"`
	DayNumber  int    `json:"day_number"`
	IsFuture   bool   `json:"is_future"`
	IsComplete bool   `json:"is_complete"`
}

type HabitHeatmapDay struct {
	Date     string `json:"date"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	IsFuture bool   `json:"is_future"`
	AllDone  bool   `json:"all_done"`
}
