package services

import (
	"math"
	"time"
)

// StatsStore supplies the raw rows the dashboard aggregates in memory.
type StatsStore interface {
	ListAllFeedback() ([]*Feedback, error)
	TicketTotals() (count int, totalBytes int64, err error)
}

type DailyTrend struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DashboardStats struct {
	TotalFeedback         int            `json:"total_feedback"`
	AvgRating             float64        `json:"avg_rating"`
	ActiveIssues          int            `json:"active_issues"`
	ResolvedIssues        int            `json:"resolved_issues"`
	ProblemDistribution   map[string]int `json:"problem_distribution"`
	DailyTrends           []DailyTrend   `json:"daily_trends"`
	TransportDistribution map[string]int `json:"transport_distribution"`
	FilesUploaded         int            `json:"files_uploaded"`
	TotalFileSize         int64          `json:"total_file_size"`
}

type StatsService struct {
	store StatsStore
	now   func() time.Time
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Dashboard builds the aggregate view for the operations dashboard.
func (s *StatsService) Dashboard() (*DashboardStats, error) {
	entries, err := s.store.ListAllFeedback()
	if err != nil {
		return nil, err
	}
	filesCount, filesSize, err := s.store.TicketTotals()
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalFeedback:         len(entries),
		ProblemDistribution:   map[string]int{},
		TransportDistribution: map[string]int{},
		FilesUploaded:         filesCount,
		TotalFileSize:         filesSize,
	}

	ratingSum := 0
	for _, e := range entries {
		ratingSum += e.Rating
		switch e.Status {
		case StatusNew:
			stats.ActiveIssues++
		case StatusResolved:
			stats.ResolvedIssues++
		}
		for _, p := range e.Problems {
			if p != "" {
				stats.ProblemDistribution[p]++
			}
		}
		stats.TransportDistribution[e.TransportType]++
	}
	if len(entries) > 0 {
		stats.AvgRating = round1(float64(ratingSum) / float64(len(entries)))
	}
	stats.DailyTrends = s.dailyTrends(entries)
	return stats, nil
}

// dailyTrends returns exactly seven entries, oldest first, the current day
// last, zero-filled for days with no submissions.
func (s *StatsService) dailyTrends(entries []*Feedback) []DailyTrend {
	now := s.now()
	countsByDay := map[string]int{}
	for _, e := range entries {
		countsByDay[e.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]DailyTrend, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		out = append(out, DailyTrend{
			Date:  day.Format("Mon"),
			Count: countsByDay[day.Format("2006-01-02")],
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
