package services

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

type hotspotCall struct {
	route, transportType string
	lat, lng             float64
	rating               int
}

type stubFeedbackStore struct {
	inserted     []*Feedback
	tickets      []*TicketFile
	hotspotCalls []hotspotCall
	listResult   []*Feedback
	lastFilter   FeedbackFilter
	statusKnown  bool
}

func (s *stubFeedbackStore) InsertFeedback(f *Feedback, ticket *TicketFile) error {
	s.inserted = append(s.inserted, f)
	if ticket != nil {
		s.tickets = append(s.tickets, ticket)
	}
	return nil
}

func (s *stubFeedbackStore) ListFeedback(filter FeedbackFilter) ([]*Feedback, error) {
	s.lastFilter = filter
	return s.listResult, nil
}

func (s *stubFeedbackStore) UpdateFeedbackStatus(id string, status Status) (bool, error) {
	return s.statusKnown, nil
}

func (s *stubFeedbackStore) GetTicketByFeedback(feedbackID string) (*TicketFile, error) {
	for _, t := range s.tickets {
		if t.FeedbackID == feedbackID {
			return t, nil
		}
	}
	return nil, nil
}

func (s *stubFeedbackStore) UpsertHotspot(route, transportType string, lat, lng float64, rating int, now time.Time) error {
	s.hotspotCalls = append(s.hotspotCalls, hotspotCall{route, transportType, lat, lng, rating})
	return nil
}

func (s *stubFeedbackStore) ListHotspots() ([]*RouteHotspot, error) { return nil, nil }

func validSubmission() *Submission {
	return &Submission{
		TransportType: "bus",
		Route:         "42A",
		Journey:       "morning commute",
		Rating:        4,
		Problems:      []string{"delay"},
	}
}

func TestSubmitMissingFieldsInOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Submission)
		want   string
	}{
		{"transport type first", func(s *Submission) { s.TransportType = ""; s.Route = "" }, "Missing required field: transportType"},
		{"route", func(s *Submission) { s.Route = "" }, "Missing required field: route"},
		{"journey", func(s *Submission) { s.Journey = " " }, "Missing required field: journey"},
		{"rating", func(s *Submission) { s.Rating = 0 }, "Missing required field: rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewFeedbackService(&stubFeedbackStore{})
			sub := validSubmission()
			tc.mutate(sub)
			_, err := svc.Submit(sub)
			if err == nil || err.Error() != tc.want {
				t.Fatalf("Submit error = %v, want %q", err, tc.want)
			}
			se, ok := AsServiceError(err)
			if !ok || se.Code != ErrorInvalid {
				t.Fatalf("expected invalid service error, got %#v", err)
			}
		})
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	svc := NewFeedbackService(&stubFeedbackStore{})
	sub := validSubmission()
	sub.Rating = 6
	if _, err := svc.Submit(sub); err == nil || !strings.Contains(err.Error(), "rating") {
		t.Fatalf("expected rating range error, got %v", err)
	}
}

func TestSubmitPersistsClassifiedEntry(t *testing.T) {
	store := &stubFeedbackStore{}
	svc := NewFeedbackService(store)
	sub := validSubmission()
	sub.Rating = 2

	id, err := svc.Submit(sub)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
	entry := store.inserted[0]
	if entry.ID != id || entry.Status != StatusNew || entry.Priority != PriorityHigh {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.UserID != "anonymous" {
		t.Fatalf("expected anonymous default, got %q", entry.UserID)
	}
	if len(store.hotspotCalls) != 0 {
		t.Fatalf("hotspot updated without location")
	}
}

func TestSubmitUpdatesHotspotWithLocation(t *testing.T) {
	store := &stubFeedbackStore{}
	svc := NewFeedbackService(store)
	sub := validSubmission()
	sub.Latitude = 18.52
	sub.Longitude = 73.85

	if _, err := svc.Submit(sub); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(store.hotspotCalls) != 1 {
		t.Fatalf("expected 1 hotspot call, got %d", len(store.hotspotCalls))
	}
	call := store.hotspotCalls[0]
	if call.route != "42A" || call.transportType != "bus" || call.rating != 4 {
		t.Fatalf("unexpected hotspot call: %+v", call)
	}
	entry := store.inserted[0]
	if entry.LocationLat == nil || *entry.LocationLat != 18.52 {
		t.Fatalf("location not stored: %+v", entry)
	}
}

func TestSubmitDecodesTicket(t *testing.T) {
	store := &stubFeedbackStore{}
	svc := NewFeedbackService(store)
	sub := validSubmission()
	sub.HasTicket = true
	sub.TicketName = "ticket.png"
	sub.Ticket = &TicketUpload{
		Name: "ticket.png",
		Type: "image/png",
		Data: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels")),
	}

	id, err := svc.Submit(sub)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(store.tickets) != 1 {
		t.Fatalf("expected 1 stored ticket, got %d", len(store.tickets))
	}
	ticket := store.tickets[0]
	if ticket.FeedbackID != id || string(ticket.Data) != "pixels" {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}
	if ticket.FileSize != int64(len("pixels")) {
		t.Fatalf("expected inferred size, got %d", ticket.FileSize)
	}
	if store.inserted[0].TicketFileID != ticket.ID {
		t.Fatalf("entry not linked to ticket")
	}
}

func TestSubmitSwallowsTicketDecodeFailure(t *testing.T) {
	store := &stubFeedbackStore{}
	svc := NewFeedbackService(store)
	sub := validSubmission()
	sub.Ticket = &TicketUpload{Name: "bad.png", Type: "image/png", Data: "!!!not-base64!!!"}

	id, err := svc.Submit(sub)
	if err != nil {
		t.Fatalf("Submit should survive decode failure, got %v", err)
	}
	if len(store.tickets) != 0 {
		t.Fatalf("expected no stored ticket")
	}
	if store.inserted[0].TicketFileID != "" {
		t.Fatalf("entry should have no ticket reference")
	}
	if _, err := svc.Ticket(id); err == nil {
		t.Fatalf("expected not found for dropped ticket")
	}
}

func TestListDefaultsLimitAndAddsTicketURL(t *testing.T) {
	store := &stubFeedbackStore{
		listResult: []*Feedback{
			{ID: "f1", HasTicket: true, TicketFileID: "t1"},
			{ID: "f2", HasTicket: true}, // submitted flag but no stored blob
			{ID: "f3"},
		},
	}
	svc := NewFeedbackService(store)

	entries, err := svc.List(FeedbackFilter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if store.lastFilter.Limit != DefaultListLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultListLimit, store.lastFilter.Limit)
	}
	if entries[0].TicketURL != "/api/ticket/f1" {
		t.Fatalf("expected ticket url, got %q", entries[0].TicketURL)
	}
	if entries[1].TicketURL != "" || entries[2].TicketURL != "" {
		t.Fatalf("unexpected ticket urls: %+v", entries)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := NewFeedbackService(&stubFeedbackStore{statusKnown: true})
	if err := svc.UpdateStatus("f1", StatusResolved); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if err := svc.UpdateStatus("f1", Status("closed")); err == nil || err.Error() != "Invalid status" {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	svc = NewFeedbackService(&stubFeedbackStore{statusKnown: false})
	err := svc.UpdateStatus("missing", StatusResolved)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
