// internal/reservation/handler.go
package reservation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campusshuttle/internal/catalog"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	now     func() time.Time
}

// NewHandler exposes service over HTTP. now supplies the clock and the
// location used to interpret calendar dates.
func NewHandler(service Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{service: service, now: now}
}

// Routes mounts the schedule and booking endpoints on r. Login is mounted
// separately so callers can throttle it.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/schedules", h.HandleSearch)
	r.Get("/schedules/{tripID}/seats", h.HandleSeatMap)
	r.Get("/bookings/{studentID}", h.HandleListBookings)
	r.Post("/bookings", h.HandleCreateBooking)
	r.Delete("/bookings/{bookingID}", h.HandleCancelBooking)
	r.Post("/bookings/{bookingID}/no-show", h.HandleNoShow)
}

// BookingView is a reservation joined with its trip for display.
type BookingView struct {
	Reservation
	Schedule      catalog.TripView `json:"schedule"`
	DaysUntil     int              `json:"days_until"`
	DisplayStatus string           `json:"display_status"`
}

// DisplayStatus labels a booking by the days left until its trip.
func DisplayStatus(daysUntil int) string {
	switch {
	case daysUntil < 0:
		return "expired"
	case daysUntil <= 3:
		return "upcoming"
	default:
		return fmt.Sprintf("in %d days", daysUntil)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrTripNotFound),
		errors.Is(err, ErrSeatNotFound),
		errors.Is(err, ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSeatUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrMemberSuspended):
		return http.StatusForbidden
	case errors.Is(err, ErrTripDeparted),
		errors.Is(err, ErrOutOfBookingWindow),
		errors.Is(err, ErrMissingRouteFilter),
		errors.Is(err, ErrTripNotDeparted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{
		"error": err.Error(),
		"kind":  Kind(err),
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "login failed"})
		return
	}

	member, err := h.service.FindOrCreateMember(r.Context(), req.Username, req.Password, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "studentId": member.StudentID})
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	q := r.URL.Query()

	date, err := time.ParseInLocation("2006-01-02", q.Get("date"), now.Location())
	if err != nil {
		badRequest(w, "invalid date")
		return
	}
	query := SearchQuery{Date: date, Route: q.Get("route")}
	if after := q.Get("after"); after != "" {
		tod, err := catalog.ParseTimeOfDay(after)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		query.MinDeparture = &tod
	}

	trips, err := h.service.SearchTrips(r.Context(), query, now)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]catalog.TripView, 0, len(trips))
	for _, t := range trips {
		views = append(views, t.Snapshot())
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleSeatMap(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.SeatMap(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, err)
		return
	}
	type seatView struct {
		Number    string `json:"seat_number"`
		Available bool   `json:"available"`
	}
	out := make([]seatView, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatView{Number: s.Number, Available: s.IsAvailable()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleListBookings(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	list, err := h.service.ListActiveReservations(r.Context(), studentID)
	if errors.Is(err, ErrMemberNotFound) {
		writeJSON(w, http.StatusOK, []BookingView{})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	today := h.now()
	views := make([]BookingView, 0, len(list))
	for _, res := range list {
		trip, err := h.service.GetTrip(r.Context(), res.TripID)
		if err != nil {
			writeError(w, err)
			return
		}
		days := trip.DaysUntil(today)
		views = append(views, BookingView{
			Reservation:   res,
			Schedule:      trip.Snapshot(),
			DaysUntil:     days,
			DisplayStatus: DisplayStatus(days),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID  string          `json:"studentId"`
		ScheduleID json.RawMessage `json:"scheduleId"`
		SeatNumber json.RawMessage `json:"seatNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err.Error())
		return
	}
	tripID, seat := scalar(req.ScheduleID), scalar(req.SeatNumber)
	if req.StudentID == "" || tripID == "" || seat == "" {
		badRequest(w, "studentId, scheduleId and seatNumber are required")
		return
	}

	res, err := h.service.CreateReservation(r.Context(), req.StudentID, tripID, seat, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// scalar accepts a JSON string or number and returns its text.
func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (h *Handler) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid booking id")
		return
	}
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		badRequest(w, "studentId is required")
		return
	}

	res, err := h.service.CancelReservation(r.Context(), id, studentID, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": res.Status})
}

func (h *Handler) HandleNoShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid booking id")
		return
	}

	res, err := h.service.MarkNoShow(r.Context(), id, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
