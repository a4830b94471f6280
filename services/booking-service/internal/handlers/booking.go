package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/auth"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

// Bookings is the part of booking.Service the HTTP layer uses.
type Bookings interface {
	ListSlots(ctx context.Context, calendarID, serviceID string, day availability.Day) ([]interval.Interval, error)
	CreateBooking(ctx context.Context, req booking.CreateRequest) (model.Booking, error)
	CancelBooking(ctx context.Context, bookingID, customerID string) (model.Booking, error)
	CustomerBookings(ctx context.Context, customerID string, limit int) ([]model.Booking, error)
	CalendarBookings(ctx context.Context, providerID, calendarID string, from, to time.Time) ([]model.Booking, error)
}

type BookingHandler struct {
	bookings Bookings
	loc      *time.Location
	logger   *slog.Logger
}

func NewBookingHandler(bookings Bookings, loc *time.Location, logger *slog.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{bookings: bookings, loc: loc, logger: logger}
}

// Routes maps each path to its handler. Callers add middleware and metrics per route.
func (h *BookingHandler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/api/v1/public/slots":       h.Slots,
		"/api/v1/public/book":        RequireRole(h.Create, auth.RoleCustomer),
		"/api/v1/bookings/cancel":    RequireRole(h.Cancel, auth.RoleCustomer),
		"/api/v1/bookings":           RequireRole(h.Mine, auth.RoleCustomer),
		"/api/v1/calendars/bookings": RequireRole(h.CalendarBookings, auth.RoleProvider),
	}
}

type createBookingRequest struct {
	CalendarID string `json:"calendar_id"`
	ServiceID  string `json:"service_id"`
	StartTime  string `json:"start_time"`
	Notes      string `json:"notes"`
}

type cancelBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type bookingItem struct {
	BookingID   string `json:"booking_id"`
	CalendarID  string `json:"calendar_id"`
	ServiceID   string `json:"service_id"`
	CustomerID  string `json:"customer_id,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at"`
	CancelledAt string `json:"cancelled_at,omitempty"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toItem(b model.Booking) bookingItem {
	item := bookingItem{
		BookingID:  b.ID,
		CalendarID: b.CalendarID,
		ServiceID:  b.ServiceID,
		CustomerID: b.CustomerID,
		StartTime:  b.Start.UTC().Format(time.RFC3339),
		EndTime:    b.End.UTC().Format(time.RFC3339),
		Status:     string(b.Status),
		Notes:      b.Notes,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	q := r.URL.Query()
	calendarID := strings.TrimSpace(q.Get("calendar_id"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if calendarID == "" || serviceID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "calendar_id, service_id and date are required")
		return
	}
	day, err := availability.ParseDay(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.bookings.ListSlots(r.Context(), calendarID, serviceID, day)
	if err != nil {
		writeBookingError(w, r, h.logger, err)
		return
	}

	resp := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		resp = append(resp, slotItem{
			StartTime: s.Start.In(h.loc).Format(time.RFC3339),
			EndTime:   s.End.In(h.loc).Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	id, _ := IdentityFromContext(r.Context())

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "invalid json body")
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "start_time must be RFC3339")
		return
	}

	b, err := h.bookings.CreateBooking(r.Context(), booking.CreateRequest{
		CalendarID: req.CalendarID,
		ServiceID:  req.ServiceID,
		CustomerID: id.UserID,
		Start:      start,
		Notes:      req.Notes,
	})
	if err != nil {
		writeBookingError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(b))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	id, _ := IdentityFromContext(r.Context())

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "invalid json body")
		return
	}

	b, err := h.bookings.CancelBooking(r.Context(), req.BookingID, id.UserID)
	if err != nil {
		writeBookingError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(b))
}

func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	id, _ := IdentityFromContext(r.Context())

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	list, err := h.bookings.CustomerBookings(r.Context(), id.UserID, limit)
	if err != nil {
		writeBookingError(w, r, h.logger, err)
		return
	}
	items := make([]bookingItem, 0, len(list))
	for _, b := range list {
		items = append(items, toItem(b))
	}
	writeJSON(w, http.StatusOK, items)
}

// CalendarBookings serves the provider's view. The range is either date=YYYY-MM-DD or
// from/to as RFC3339 instants.
func (h *BookingHandler) CalendarBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	id, _ := IdentityFromContext(r.Context())
	q := r.URL.Query()

	var window interval.Interval
	if dateStr := strings.TrimSpace(q.Get("date")); dateStr != "" {
		day, err := availability.ParseDay(dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "date must be YYYY-MM-DD")
			return
		}
		window = day.Window(h.loc)
	} else {
		from, errFrom := time.Parse(time.RFC3339, strings.TrimSpace(q.Get("from")))
		to, errTo := time.Parse(time.RFC3339, strings.TrimSpace(q.Get("to")))
		if errFrom != nil || errTo != nil {
			writeError(w, http.StatusBadRequest, string(booking.KindInvalidInput), "from and to must be RFC3339, or pass date")
			return
		}
		window = interval.Interval{Start: from, End: to}
	}

	list, err := h.bookings.CalendarBookings(r.Context(), id.UserID, q.Get("calendar_id"), window.Start, window.End)
	if err != nil {
		writeBookingError(w, r, h.logger, err)
		return
	}
	items := make([]bookingItem, 0, len(list))
	for _, b := range list {
		items = append(items, toItem(b))
	}
	writeJSON(w, http.StatusOK, items)
}
