package services

import "time"

// Status tracks the handling state of a feedback entry.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Priority is the severity tier assigned once at submission time.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Feedback is one passenger complaint.
type Feedback struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"timestamp"`
	TransportType string    `json:"transport_type"`
	Route         string    `json:"route"`
	Journey       string    `json:"journey"`
	Rating        int       `json:"rating"`
	Problems      []string  `json:"problems"`
	Comments      string    `json:"comments"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	LocationLat   *float64  `json:"location_lat,omitempty"`
	LocationLng   *float64  `json:"location_lng,omitempty"`
	UserID        string    `json:"user_id"`
	HasTicket     bool      `json:"has_ticket"`
	TicketName    string    `json:"ticket_name,omitempty"`
	TicketType    string    `json:"ticket_type,omitempty"`
	TicketSize    int64     `json:"ticket_size,omitempty"`
	// TicketFileID references the stored blob; set only when decoding the
	// submitted attachment succeeded.
	TicketFileID string `json:"-"`
	// TicketURL is derived on read, never stored.
	TicketURL string `json:"ticket_url,omitempty"`
}

// TicketFile is an uploaded attachment owned by one feedback entry.
type TicketFile struct {
	ID         string
	FeedbackID string
	Filename   string
	FileType   string
	FileSize   int64
	Data       []byte
	UploadTime time.Time
}

// RouteHotspot aggregates complaint volume and average severity for one
// (route, transport type) pair at a fixed geographic point. The coordinates
// are pinned at first observation and never move.
type RouteHotspot struct {
	ID            string    `json:"id"`
	Route         string    `json:"route"`
	TransportType string    `json:"transport_type"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	IssueCount    int       `json:"issue_count"`
	AvgRating     float64   `json:"avg_rating"`
	LastUpdated   time.Time `json:"last_updated"`
}
