package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/learnhub/seminarbook/libs/httpx"
	"github.com/learnhub/seminarbook/services/booking-service/internal/booking"
	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/learnhub/seminarbook/services/booking-service/internal/validation"
)

const (
	codeDuplicate        = "DuplicateBooking"
	codeNotFound         = "NotFound"
	codeInvalidBody      = "InvalidBody"
	codePayloadTooLarge  = "PayloadTooLarge"
	codeInvalidQuery     = "InvalidQuery"
	codeInternal         = "InternalError"
	codeMethodNotAllowed = "MethodNotAllowed"
)

type BookingHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewBookingHandler(svc *booking.Service, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// Register mounts the booking routes on r. admin guards the reporting routes and
// may be nil.
func (h *BookingHandler) Register(r *mux.Router, admin httpx.Middleware) {
	guard := func(fn http.HandlerFunc) http.Handler {
		if admin == nil {
			return fn
		}
		return admin(fn)
	}
	r.HandleFunc("/book", h.Create).Methods(http.MethodPost)
	r.Handle("/bookings", guard(h.List)).Methods(http.MethodGet)
	r.Handle("/bookings/{id}", guard(h.Get)).Methods(http.MethodGet)
	r.Handle("/bookings/{id}/status", guard(h.UpdateStatus)).Methods(http.MethodPatch)
}

// NewRouter builds the booking router with the routes mounted at the root and
// under /api/v1.
func NewRouter(h *BookingHandler, admin httpx.Middleware) *mux.Router {
	r := mux.NewRouter()
	h.Register(r, admin)
	h.Register(r.PathPrefix("/api/v1").Subrouter(), admin)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
	return r
}

type whatsappStatus struct {
	AdminNotified bool `json:"adminNotified"`
	UserNotified  bool `json:"userNotified"`
	Queued        bool `json:"queued,omitempty"`
}

type createBookingResponse struct {
	BookingID      string         `json:"bookingId"`
	FullName       string         `json:"fullName"`
	Email          string         `json:"email"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	Status         model.Status   `json:"status"`
	WhatsappStatus whatsappStatus `json:"whatsappStatus"`
}

type bookingResponse struct {
	ID             string         `json:"id"`
	FullName       string         `json:"fullName"`
	Email          string         `json:"email"`
	PhoneNumber    string         `json:"phoneNumber"`
	City           string         `json:"city"`
	Country        string         `json:"country"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	Status         model.Status   `json:"status"`
	WhatsappStatus whatsappStatus `json:"whatsappStatus"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
}

type pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func toResponse(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		FullName:    b.FullName,
		Email:       b.Email,
		PhoneNumber: b.PhoneNumber,
		City:        b.City,
		Country:     b.Country,
		Date:        b.DateString(),
		Time:        b.TimeSlot,
		Status:      b.Status,
		WhatsappStatus: whatsappStatus{
			AdminNotified: b.AdminNotified,
			UserNotified:  b.UserNotified,
		},
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sub validation.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeBodyError(w, err)
		return
	}

	res, err := h.svc.Create(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	b := res.Booking
	httpx.WriteJSON(w, http.StatusCreated, httpx.Envelope{
		Success: true,
		Message: "booking created",
		Data: createBookingResponse{
			BookingID: b.ID,
			FullName:  b.FullName,
			Email:     b.Email,
			Date:      b.DateString(),
			Time:      b.TimeSlot,
			Status:    b.Status,
			WhatsappStatus: whatsappStatus{
				AdminNotified: b.AdminNotified,
				UserNotified:  b.UserNotified,
				Queued:        res.Queued,
			},
		},
	})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidQuery, "page must be a positive integer")
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidQuery, "limit must be a positive integer")
		return
	}

	res, err := h.svc.List(r.Context(), booking.ListQuery{
		Page:   page,
		Limit:  limit,
		Status: q.Get("status"),
		Date:   q.Get("date"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]bookingResponse, 0, len(res.Items))
	for _, b := range res.Items {
		items = append(items, toResponse(b))
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Data:    items,
		Pagination: pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
			HasNext:    res.HasNext,
			HasPrev:    res.HasPrev,
		},
	})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, toResponse(b))
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}

	b, err := h.svc.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Message: "booking status updated",
		Data:    toResponse(b),
	})
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
		return
	}
	httpx.WriteError(w, http.StatusBadRequest, codeInvalidBody, "invalid json body")
}

func (h *BookingHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, string(verr.Kind), verr.Message)
	case errors.Is(err, booking.ErrDuplicate):
		httpx.WriteError(w, http.StatusConflict, codeDuplicate, "a booking already exists for this email on the selected date")
	case errors.Is(err, booking.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, codeNotFound, "booking not found")
	default:
		h.logger.Error("booking request failed", "err", err, "method", r.Method, "path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, codeInternal, "something went wrong, please try again later")
	}
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}
