package services

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/transit-feedback/internal/logging"
	"github.com/citypulse/transit-feedback/internal/metrics"
)

// FeedbackStore is the persistence contract the ingestion and feedback query
// paths rely on. UpsertHotspot must be atomic per (route, transportType) key;
// separate read-then-write calls would lose updates under concurrent
// submissions for the same key.
type FeedbackStore interface {
	InsertFeedback(f *Feedback, ticket *TicketFile) error
	ListFeedback(filter FeedbackFilter) ([]*Feedback, error)
	UpdateFeedbackStatus(id string, status Status) (bool, error)
	GetTicketByFeedback(feedbackID string) (*TicketFile, error)
	UpsertHotspot(route, transportType string, lat, lng float64, rating int, now time.Time) error
	ListHotspots() ([]*RouteHotspot, error)
}

// FeedbackFilter narrows a feedback listing. Zero values mean "no filter";
// Limit <= 0 means unlimited.
type FeedbackFilter struct {
	TransportType string
	Priority      string
	Status        string
	Limit         int
}

// DefaultListLimit applies when the caller does not pass a limit.
const DefaultListLimit = 50

// TicketUpload is the attachment payload as submitted: base64 data with an
// optional data-URL header prefix.
type TicketUpload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Data string `json:"data"`
}

// Submission is a validated-at-the-boundary feedback submission.
type Submission struct {
	TransportType string
	Route         string
	Journey       string
	Rating        int
	Problems      []string
	Comments      string
	Latitude      float64
	Longitude     float64
	UserID        string
	HasTicket     bool
	TicketName    string
	Ticket        *TicketUpload
}

type FeedbackService struct {
	store FeedbackStore
	now   func() time.Time
}

func NewFeedbackService(store FeedbackStore) *FeedbackService {
	return &FeedbackService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// requiredFields fixes the order in which missing fields are reported.
var requiredFields = []struct {
	name    string
	missing func(*Submission) bool
}{
	{"transportType", func(s *Submission) bool { return strings.TrimSpace(s.TransportType) == "" }},
	{"route", func(s *Submission) bool { return strings.TrimSpace(s.Route) == "" }},
	{"journey", func(s *Submission) bool { return strings.TrimSpace(s.Journey) == "" }},
	{"rating", func(s *Submission) bool { return s.Rating == 0 }},
}

// Submit ingests one submission: validate, classify, decode the optional
// ticket, persist, then fold the rating into the route hotspot when both
// coordinates are present. Returns the generated feedback id.
func (s *FeedbackService) Submit(sub *Submission) (string, error) {
	for _, f := range requiredFields {
		if f.missing(sub) {
			return "", NewInvalidError("Missing required field: " + f.name)
		}
	}
	if sub.Rating < 1 || sub.Rating > 5 {
		return "", NewInvalidError("Invalid rating: must be between 1 and 5")
	}

	id := uuid.NewString()
	now := s.now()

	// Decode failure drops the attachment but never the entry.
	var ticket *TicketFile
	if sub.Ticket != nil {
		ticket = decodeTicket(id, sub.Ticket, now)
	}

	entry := &Feedback{
		ID:            id,
		CreatedAt:     now,
		TransportType: sub.TransportType,
		Route:         sub.Route,
		Journey:       sub.Journey,
		Rating:        sub.Rating,
		Problems:      sub.Problems,
		Comments:      sub.Comments,
		Status:        StatusNew,
		Priority:      ClassifyPriority(sub.Rating, sub.Problems),
		UserID:        sub.UserID,
		HasTicket:     sub.HasTicket,
		TicketName:    sub.TicketName,
	}
	if entry.UserID == "" {
		entry.UserID = "anonymous"
	}
	if sub.Latitude != 0 && sub.Longitude != 0 {
		lat, lng := sub.Latitude, sub.Longitude
		entry.LocationLat = &lat
		entry.LocationLng = &lng
	}
	if ticket != nil {
		entry.TicketFileID = ticket.ID
		entry.TicketType = ticket.FileType
		entry.TicketSize = ticket.FileSize
	}

	if err := s.store.InsertFeedback(entry, ticket); err != nil {
		return "", err
	}

	if entry.LocationLat != nil && entry.LocationLng != nil {
		if err := s.store.UpsertHotspot(sub.Route, sub.TransportType, sub.Latitude, sub.Longitude, sub.Rating, now); err != nil {
			// The entry is already persisted; a hotspot miss only degrades
			// the map view.
			metrics.HotspotUpdateErrors.Inc()
			logging.Error().Err(err).Str("route", sub.Route).Msg("hotspot update failed")
		}
	}

	metrics.RecordSubmission(entry.TransportType, string(entry.Priority), ticket != nil)
	logging.Info().Str("id", id).Str("priority", string(entry.Priority)).Msg("feedback submitted")
	return id, nil
}

func decodeTicket(feedbackID string, up *TicketUpload, now time.Time) *TicketFile {
	raw := up.Data
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		logging.Warn().Err(err).Str("feedback_id", feedbackID).Str("filename", up.Name).Msg("ticket decode failed, dropping attachment")
		return nil
	}
	size := up.Size
	if size == 0 {
		size = int64(len(data))
	}
	return &TicketFile{
		ID:         uuid.NewString(),
		FeedbackID: feedbackID,
		Filename:   up.Name,
		FileType:   up.Type,
		FileSize:   size,
		Data:       data,
		UploadTime: now,
	}
}

// List returns entries newest first, with ticket URLs attached for entries
// whose attachment is retrievable.
func (s *FeedbackService) List(filter FeedbackFilter) ([]*Feedback, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	entries, err := s.store.ListFeedback(filter)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.HasTicket && e.TicketFileID != "" {
			e.TicketURL = "/api/ticket/" + e.ID
		}
	}
	return entries, nil
}

// UpdateStatus sets the handling state of one entry.
func (s *FeedbackService) UpdateStatus(id string, status Status) error {
	if !status.Valid() {
		return NewInvalidError("Invalid status")
	}
	ok, err := s.store.UpdateFeedbackStatus(id, status)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("Feedback not found")
	}
	logging.Info().Str("id", id).Str("status", string(status)).Msg("feedback status updated")
	return nil
}

// Ticket fetches the attachment for one feedback entry.
func (s *FeedbackService) Ticket(feedbackID string) (*TicketFile, error) {
	t, err := s.store.GetTicketByFeedback(feedbackID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("Ticket not found")
	}
	return t, nil
}

// Hotspots returns all hotspots, busiest first.
func (s *FeedbackService) Hotspots() ([]*RouteHotspot, error) {
	return s.store.ListHotspots()
}
