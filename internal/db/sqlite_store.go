// Package db implements the persistent store on SQLite. All aggregate
// invariants that span requests (the hotspot running mean in particular)
// live in single SQL statements here, never in read-then-write application
// code.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/citypulse/transit-feedback/internal/logging"
	"github.com/citypulse/transit-feedback/internal/services"
)

type SQLiteStore struct {
	db *sql.DB
}

// Open opens the SQLite database file at path.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	return sql.Open("sqlite3", dsn)
}

func NewSQLiteStore(sqlDB *sql.DB) (*SQLiteStore, error) {
	if sqlDB == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

var (
	_ services.FeedbackStore  = (*SQLiteStore)(nil)
	_ services.StatsStore     = (*SQLiteStore)(nil)
	_ services.AnalyticsStore = (*SQLiteStore)(nil)
	_ services.ExportStore    = (*SQLiteStore)(nil)
	_ services.FileStatsStore = (*SQLiteStore)(nil)
)

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func toNullInt(i int64) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: i, Valid: true}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// timeLayout keeps a fixed fractional width so stored timestamps sort
// lexicographically; RFC3339Nano strips trailing zeros and would not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		logging.Warn().Str("value", s).Msg("sqlite store: unparsable timestamp")
		return time.Time{}
	}
	return t
}

func joinProblems(problems []string) string {
	return strings.Join(problems, ",")
}

func splitProblems(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// --- Feedback ---

// InsertFeedback writes the entry and its optional ticket blob in one
// transaction, so a ticket row never exists without its owning entry.
func (s *SQLiteStore) InsertFeedback(f *services.Feedback, ticket *services.TicketFile) error {
	if f == nil {
		return errors.New("nil feedback")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert feedback: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO feedback
      (id, created_at, transport_type, route, journey, rating, problems, comments,
       status, priority, location_lat, location_lng, user_id,
       has_ticket, ticket_name, ticket_file_id, ticket_type, ticket_size)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, formatTime(f.CreatedAt), f.TransportType, f.Route, f.Journey, f.Rating,
		joinProblems(f.Problems), f.Comments, string(f.Status), string(f.Priority),
		toNullFloat(f.LocationLat), toNullFloat(f.LocationLng), f.UserID,
		boolToInt64(f.HasTicket), toNullString(f.TicketName), toNullString(f.TicketFileID),
		toNullString(f.TicketType), toNullInt(f.TicketSize))
	if err != nil {
		return fmt.Errorf("insert feedback %s: %w", f.ID, err)
	}

	if ticket != nil {
		_, err = tx.Exec(`INSERT INTO ticket_files
          (id, feedback_id, filename, file_type, file_size, file_data, upload_time)
          VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ticket.ID, ticket.FeedbackID, ticket.Filename, ticket.FileType,
			ticket.FileSize, ticket.Data, formatTime(ticket.UploadTime))
		if err != nil {
			return fmt.Errorf("insert ticket file %s: %w", ticket.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert feedback: %w", err)
	}
	return nil
}

const feedbackColumns = `id, created_at, transport_type, route, journey, rating, problems,
      comments, status, priority, location_lat, location_lng, user_id,
      has_ticket, ticket_name, ticket_file_id, ticket_type, ticket_size`

// ListFeedback returns entries newest first, narrowed by the filter.
func (s *SQLiteStore) ListFeedback(filter services.FeedbackFilter) ([]*services.Feedback, error) {
	query := "SELECT " + feedbackColumns + " FROM feedback WHERE 1=1"
	args := []any{}
	if filter.TransportType != "" {
		query += " AND transport_type = ?"
		args = append(args, filter.TransportType)
	}
	if filter.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filter.Priority)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("sqlite store: close feedback rows")
		}
	}()

	out := []*services.Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list feedback rows: %w", err)
	}
	return out, nil
}

// ListAllFeedback returns every entry, newest first.
func (s *SQLiteStore) ListAllFeedback() ([]*services.Feedback, error) {
	return s.ListFeedback(services.FeedbackFilter{})
}

func scanFeedback(rows *sql.Rows) (*services.Feedback, error) {
	var (
		f                                  services.Feedback
		created, status, priority          string
		problems                           string
		lat, lng                           sql.NullFloat64
		hasTicket                          int64
		ticketName, ticketFileID, ticketTy sql.NullString
		ticketSize                         sql.NullInt64
	)
	err := rows.Scan(&f.ID, &created, &f.TransportType, &f.Route, &f.Journey, &f.Rating,
		&problems, &f.Comments, &status, &priority, &lat, &lng, &f.UserID,
		&hasTicket, &ticketName, &ticketFileID, &ticketTy, &ticketSize)
	if err != nil {
		return nil, fmt.Errorf("scan feedback: %w", err)
	}
	f.CreatedAt = parseTime(created)
	f.Problems = splitProblems(problems)
	f.Status = services.Status(status)
	f.Priority = services.Priority(priority)
	if lat.Valid {
		v := lat.Float64
		f.LocationLat = &v
	}
	if lng.Valid {
		v := lng.Float64
		f.LocationLng = &v
	}
	f.HasTicket = hasTicket != 0
	f.TicketName = ticketName.String
	f.TicketFileID = ticketFileID.String
	f.TicketType = ticketTy.String
	f.TicketSize = ticketSize.Int64
	return &f, nil
}

// UpdateFeedbackStatus reports false when the id is unknown.
func (s *SQLiteStore) UpdateFeedbackStatus(id string, status services.Status) (bool, error) {
	res, err := s.db.Exec(`UPDATE feedback SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return false, fmt.Errorf("update feedback status %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update feedback status rows affected: %w", err)
	}
	return affected > 0, nil
}

// --- Tickets ---

func (s *SQLiteStore) GetTicketByFeedback(feedbackID string) (*services.TicketFile, error) {
	row := s.db.QueryRow(`SELECT id, feedback_id, filename, file_type, file_size, file_data, upload_time
      FROM ticket_files WHERE feedback_id = ?`, feedbackID)
	var (
		t        services.TicketFile
		uploaded string
	)
	err := row.Scan(&t.ID, &t.FeedbackID, &t.Filename, &t.FileType, &t.FileSize, &t.Data, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket for feedback %s: %w", feedbackID, err)
	}
	t.UploadTime = parseTime(uploaded)
	return &t, nil
}

func (s *SQLiteStore) TicketTotals() (int, int64, error) {
	var (
		count int
		size  sql.NullInt64
	)
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM ticket_files`)
	if err := row.Scan(&count, &size); err != nil {
		return 0, 0, fmt.Errorf("ticket totals: %w", err)
	}
	return count, size.Int64, nil
}

func (s *SQLiteStore) TicketTypeDistribution() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT file_type, COUNT(*) FROM ticket_files GROUP BY file_type`)
	if err != nil {
		return nil, fmt.Errorf("ticket type distribution: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("sqlite store: close ticket type rows")
		}
	}()

	out := map[string]int{}
	for rows.Next() {
		var (
			fileType string
			count    int
		)
		if err := rows.Scan(&fileType, &count); err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		out[fileType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticket type rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) RecentUploads(limit int) ([]services.UploadRecord, error) {
	rows, err := s.db.Query(`SELECT tf.filename, tf.file_type, tf.upload_time, f.route, f.transport_type
      FROM ticket_files tf JOIN feedback f ON f.id = tf.feedback_id
      ORDER BY tf.upload_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent uploads: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("sqlite store: close recent upload rows")
		}
	}()

	out := []services.UploadRecord{}
	for rows.Next() {
		var (
			rec      services.UploadRecord
			uploaded string
		)
		if err := rows.Scan(&rec.Filename, &rec.FileType, &uploaded, &rec.Route, &rec.TransportType); err != nil {
			return nil, fmt.Errorf("scan recent upload: %w", err)
		}
		rec.UploadTime = parseTime(uploaded)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent upload rows: %w", err)
	}
	return out, nil
}

// --- Hotspots ---

// UpsertHotspot folds one rating into the per-key aggregate in a single
// statement. On conflict the running mean is recomputed from the stored
// count, the coordinates stay pinned to the first observation, and only
// issue_count and last_updated move with it.
func (s *SQLiteStore) UpsertHotspot(route, transportType string, lat, lng float64, rating int, now time.Time) error {
	_, err := s.db.Exec(`INSERT INTO route_hotspots
      (id, route, transport_type, lat, lng, issue_count, avg_rating, last_updated)
      VALUES (?, ?, ?, ?, ?, 1, ?, ?)
      ON CONFLICT(route, transport_type) DO UPDATE SET
        avg_rating = (route_hotspots.avg_rating * route_hotspots.issue_count + excluded.avg_rating)
                     / (route_hotspots.issue_count + 1),
        issue_count = route_hotspots.issue_count + 1,
        last_updated = excluded.last_updated`,
		uuid.NewString(), route, transportType, lat, lng, float64(rating), formatTime(now))
	if err != nil {
		return fmt.Errorf("upsert hotspot %s/%s: %w", route, transportType, err)
	}
	return nil
}

func (s *SQLiteStore) ListHotspots() ([]*services.RouteHotspot, error) {
	rows, err := s.db.Query(`SELECT id, route, transport_type, lat, lng, issue_count, avg_rating, last_updated
      FROM route_hotspots ORDER BY issue_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("list hotspots: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("sqlite store: close hotspot rows")
		}
	}()

	out := []*services.RouteHotspot{}
	for rows.Next() {
		var (
			h       services.RouteHotspot
			updated sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.Route, &h.TransportType, &h.Lat, &h.Lng, &h.IssueCount, &h.AvgRating, &updated); err != nil {
			return nil, fmt.Errorf("scan hotspot: %w", err)
		}
		if updated.Valid {
			h.LastUpdated = parseTime(updated.String)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hotspot rows: %w", err)
	}
	return out, nil
}
