package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/citypulse/transit-feedback/internal/services"
)

// Handlers carries the service dependencies of the HTTP surface.
type Handlers struct {
	feedback  *services.FeedbackService
	stats     *services.StatsService
	analytics *services.AnalyticsService
	export    *services.ExportService
	files     *services.FileService
	version   VersionInfo
}

// VersionInfo is what GET /version reports.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

func NewHandlers(
	feedback *services.FeedbackService,
	stats *services.StatsService,
	analytics *services.AnalyticsService,
	export *services.ExportService,
	files *services.FileService,
	version VersionInfo,
) *Handlers {
	return &Handlers{
		feedback:  feedback,
		stats:     stats,
		analytics: analytics,
		export:    export,
		files:     files,
		version:   version,
	}
}

// submitRequest is the POST /api/feedback body. Field order fixes the order
// in which missing required fields are reported.
type submitRequest struct {
	TransportType string                 `json:"transportType" validate:"required"`
	Route         string                 `json:"route" validate:"required"`
	Journey       string                 `json:"journey" validate:"required"`
	Rating        int                    `json:"rating" validate:"required,min=1,max=5"`
	Problems      []string               `json:"problems"`
	Comments      string                 `json:"comments"`
	Latitude      float64                `json:"latitude"`
	Longitude     float64                `json:"longitude"`
	UserID        string                 `json:"userId"`
	HasTicket     bool                   `json:"hasTicket"`
	TicketName    string                 `json:"ticketName"`
	TicketData    *services.TicketUpload `json:"ticketData"`
}

func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	id, err := h.feedback.Submit(&services.Submission{
		TransportType: req.TransportType,
		Route:         req.Route,
		Journey:       req.Journey,
		Rating:        req.Rating,
		Problems:      req.Problems,
		Comments:      req.Comments,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		UserID:        req.UserID,
		HasTicket:     req.HasTicket,
		TicketName:    req.TicketName,
		Ticket:        req.TicketData,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Feedback submitted successfully",
		"id":      id,
	})
}

func (h *Handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.FeedbackFilter{
		TransportType: q.Get("transport_type"),
		Priority:      q.Get("priority"),
		Status:        q.Get("status"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.feedback.List(filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": entries})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.feedback.UpdateStatus(id, services.Status(req.Status)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Status updated successfully",
	})
}

func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.feedback.Ticket(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", ticket.FileType)
	w.Header().Set("Content-Disposition", `inline; filename="`+ticket.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ticket.Data)
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) GetHotspots(w http.ResponseWriter, r *http.Request) {
	hotspots, err := h.feedback.Hotspots()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotspots": hotspots})
}

func (h *Handlers) GetRouteAnalytics(w http.ResponseWriter, r *http.Request) {
	routes, err := h.analytics.ProblematicRoutes()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"problematic_routes": routes})
}

func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	result, err := h.export.ExportCSV()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+result.Filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (h *Handlers) GetFileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.files.Stats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.version)
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexPage))
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}
