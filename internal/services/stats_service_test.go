package services

import (
	"testing"
	"time"
)

type stubStatsStore struct {
	entries   []*Feedback
	fileCount int
	fileBytes int64
}

func (s *stubStatsStore) ListAllFeedback() ([]*Feedback, error) { return s.entries, nil }
func (s *stubStatsStore) TicketTotals() (int, int64, error)     { return s.fileCount, s.fileBytes, nil }

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestDashboardEmpty(t *testing.T) {
	svc := NewStatsService(&stubStatsStore{})
	svc.now = fixedNow

	stats, err := svc.Dashboard()
	if err != nil {
		t.Fatalf("Dashboard error: %v", err)
	}
	if stats.TotalFeedback != 0 || stats.AvgRating != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if len(stats.DailyTrends) != 7 {
		t.Fatalf("expected 7 trend entries, got %d", len(stats.DailyTrends))
	}
	for _, d := range stats.DailyTrends {
		if d.Count != 0 {
			t.Fatalf("expected zero-filled trends, got %+v", stats.DailyTrends)
		}
	}
}

func TestDashboardAggregates(t *testing.T) {
	now := fixedNow()
	store := &stubStatsStore{
		entries: []*Feedback{
			{Rating: 2, Status: StatusNew, TransportType: "bus", Problems: []string{"delay", "crowding"}, CreatedAt: now},
			{Rating: 5, Status: StatusResolved, TransportType: "bus", Problems: []string{"delay"}, CreatedAt: now.AddDate(0, 0, -1)},
			{Rating: 3, Status: StatusInProgress, TransportType: "metro", Problems: []string{""}, CreatedAt: now.AddDate(0, 0, -8)},
		},
		fileCount: 2,
		fileBytes: 2048,
	}
	svc := NewStatsService(store)
	svc.now = fixedNow

	stats, err := svc.Dashboard()
	if err != nil {
		t.Fatalf("Dashboard error: %v", err)
	}
	if stats.TotalFeedback != 3 {
		t.Fatalf("total = %d", stats.TotalFeedback)
	}
	// (2+5+3)/3 = 3.333... rounded to one decimal
	if stats.AvgRating != 3.3 {
		t.Fatalf("avg rating = %v, want 3.3", stats.AvgRating)
	}
	if stats.ActiveIssues != 1 || stats.ResolvedIssues != 1 {
		t.Fatalf("status counts: active=%d resolved=%d", stats.ActiveIssues, stats.ResolvedIssues)
	}
	if stats.ProblemDistribution["delay"] != 2 || stats.ProblemDistribution["crowding"] != 1 {
		t.Fatalf("problem distribution: %+v", stats.ProblemDistribution)
	}
	if _, ok := stats.ProblemDistribution[""]; ok {
		t.Fatalf("empty tag must not be counted")
	}
	if stats.TransportDistribution["bus"] != 2 || stats.TransportDistribution["metro"] != 1 {
		t.Fatalf("transport distribution: %+v", stats.TransportDistribution)
	}
	if stats.FilesUploaded != 2 || stats.TotalFileSize != 2048 {
		t.Fatalf("file stats: %d %d", stats.FilesUploaded, stats.TotalFileSize)
	}
}

func TestDailyTrendsWindow(t *testing.T) {
	now := fixedNow()
	store := &stubStatsStore{
		entries: []*Feedback{
			{CreatedAt: now},                   // today
			{CreatedAt: now.AddDate(0, 0, -6)}, // oldest day inside window
			{CreatedAt: now.AddDate(0, 0, -6)}, // same day
			{CreatedAt: now.AddDate(0, 0, -7)}, // outside window
		},
	}
	svc := NewStatsService(store)
	svc.now = fixedNow

	stats, err := svc.Dashboard()
	if err != nil {
		t.Fatalf("Dashboard error: %v", err)
	}
	trends := stats.DailyTrends
	if len(trends) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(trends))
	}
	if trends[0].Count != 2 {
		t.Fatalf("oldest entry count = %d, want 2", trends[0].Count)
	}
	if trends[6].Count != 1 {
		t.Fatalf("today count = %d, want 1", trends[6].Count)
	}
	if trends[6].Date != now.Format("Mon") {
		t.Fatalf("today label = %q", trends[6].Date)
	}
	sum := 0
	for _, d := range trends {
		sum += d.Count
	}
	if sum != 3 {
		t.Fatalf("window sum = %d, want 3 (entry outside window excluded)", sum)
	}
}
