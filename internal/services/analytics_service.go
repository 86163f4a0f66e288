package services

import "sort"

// AnalyticsStore supplies the rows route analytics groups in memory.
type AnalyticsStore interface {
	ListAllFeedback() ([]*Feedback, error)
}

// ProblematicRoute is one row of the route analytics report.
type ProblematicRoute struct {
	Route          string   `json:"route"`
	TransportType  string   `json:"transport_type"`
	ComplaintCount int      `json:"complaint_count"`
	AvgRating      float64  `json:"avg_rating"`
	CommonProblems []string `json:"common_problems"`
}

type AnalyticsService struct {
	store AnalyticsStore
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// complaintRatingCeiling: only entries rated at or below this count as
// complaints for the route report.
const complaintRatingCeiling = 3

// maxProblematicRoutes caps the report length.
const maxProblematicRoutes = 10

// maxCommonProblems caps the distinct tags reported per route.
const maxCommonProblems = 3

// ProblematicRoutes groups low-rated entries by (route, transport type) and
// returns the worst offenders: most complaints first, lower mean rating
// breaking ties.
func (s *AnalyticsService) ProblematicRoutes() ([]ProblematicRoute, error) {
	entries, err := s.store.ListAllFeedback()
	if err != nil {
		return nil, err
	}

	type group struct {
		route, transportType string
		count, ratingSum     int
		problems             []string
		seen                 map[string]bool
	}
	groups := map[string]*group{}
	order := []string{}
	for _, e := range entries {
		if e.Rating > complaintRatingCeiling {
			continue
		}
		key := e.Route + "\x00" + e.TransportType
		g := groups[key]
		if g == nil {
			g = &group{route: e.Route, transportType: e.TransportType, seen: map[string]bool{}}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.ratingSum += e.Rating
		for _, p := range e.Problems {
			if p != "" && !g.seen[p] {
				g.seen[p] = true
				g.problems = append(g.problems, p)
			}
		}
	}

	out := make([]ProblematicRoute, 0, len(order))
	for _, key := range order {
		g := groups[key]
		problems := g.problems
		if len(problems) > maxCommonProblems {
			problems = problems[:maxCommonProblems]
		}
		out = append(out, ProblematicRoute{
			Route:          g.route,
			TransportType:  g.transportType,
			ComplaintCount: g.count,
			AvgRating:      round1(float64(g.ratingSum) / float64(g.count)),
			CommonProblems: problems,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ComplaintCount != out[j].ComplaintCount {
			return out[i].ComplaintCount > out[j].ComplaintCount
		}
		return out[i].AvgRating < out[j].AvgRating
	})
	if len(out) > maxProblematicRoutes {
		out = out[:maxProblematicRoutes]
	}
	return out, nil
}
