package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// ExportStore supplies the rows the CSV export renders. Entries arrive
// newest first from the store.
type ExportStore interface {
	ListAllFeedback() ([]*Feedback, error)
}

// ExportResult carries a rendered file ready to be served.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

// csvHeader is the fixed 12-column export schema.
var csvHeader = []string{
	"ID", "Timestamp", "Transport Type", "Route", "Journey",
	"Rating", "Problems", "Comments", "Status", "Priority",
	"Has Ticket", "Ticket Name",
}

// ExportCSV renders every feedback entry, newest first.
func (s *ExportService) ExportCSV() (*ExportResult, error) {
	entries, err := s.store.ListAllFeedback()
	if err != nil {
		return nil, err
	}
	data, err := renderFeedbackCSV(entries)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    "transport_feedback.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

func renderFeedbackCSV(entries []*Feedback) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		hasTicket := "No"
		if e.HasTicket {
			hasTicket = "Yes"
		}
		ticketName := e.TicketName
		if ticketName == "" {
			ticketName = "N/A"
		}
		rec := []string{
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			e.TransportType,
			e.Route,
			e.Journey,
			strconv.Itoa(e.Rating),
			strings.Join(e.Problems, ","),
			e.Comments,
			string(e.Status),
			string(e.Priority),
			hasTicket,
			ticketName,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
