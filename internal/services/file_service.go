package services

import "time"

// FileStatsStore exposes the upload counters and the upload/feedback join.
type FileStatsStore interface {
	TicketTotals() (count int, totalBytes int64, err error)
	TicketTypeDistribution() (map[string]int, error)
	RecentUploads(limit int) ([]UploadRecord, error)
}

// UploadRecord is one recent upload joined with its owning feedback entry.
type UploadRecord struct {
	Filename      string    `json:"filename"`
	FileType      string    `json:"file_type"`
	UploadTime    time.Time `json:"upload_time"`
	Route         string    `json:"route"`
	TransportType string    `json:"transport_type"`
}

type FileStats struct {
	TotalFiles    int            `json:"total_files"`
	TotalSize     int64          `json:"total_size"`
	FileTypes     map[string]int `json:"file_types"`
	RecentUploads []UploadRecord `json:"recent_uploads"`
}

// recentUploadsLimit caps the joined listing.
const recentUploadsLimit = 10

type FileService struct {
	store FileStatsStore
}

func NewFileService(store FileStatsStore) *FileService {
	return &FileService{store: store}
}

// Stats assembles the upload counters for the dashboard.
func (s *FileService) Stats() (*FileStats, error) {
	count, size, err := s.store.TicketTotals()
	if err != nil {
		return nil, err
	}
	types, err := s.store.TicketTypeDistribution()
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentUploads(recentUploadsLimit)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = map[string]int{}
	}
	if recent == nil {
		recent = []UploadRecord{}
	}
	return &FileStats{
		TotalFiles:    count,
		TotalSize:     size,
		FileTypes:     types,
		RecentUploads: recent,
	}, nil
}
