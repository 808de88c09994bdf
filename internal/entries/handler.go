package entries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/traininglog/internal/dates"
	"github.com/2beens/traininglog/internal/sequencing"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/internal/training"
	"github.com/2beens/traininglog/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=entries_test

type service interface {
	List(ctx context.Context, ownerID string) ([]training.Entry, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*training.Entry, error)
	Add(ctx context.Context, entry training.Entry) (*training.Entry, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, changes Changes) (*training.Entry, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) ([]uuid.UUID, error)
	CompletePlanned(ctx context.Context, ownerID string, planID uuid.UUID, done Changes) (*training.Entry, error)
	Renumber(ctx context.Context, ownerID string) (*sequencing.PassResult, error)
}

// AddRequest is the body of a new entry.
type AddRequest struct {
	Status          training.Status `json:"status"`
	Title           string          `json:"title"`
	Date            dates.Date      `json:"date"`
	DistanceKm      float64         `json:"distanceKm"`
	DurationSeconds *int            `json:"durationSeconds"`
	AvgHeartRate    *int            `json:"avgHeartRate"`
}

type DeleteResponse struct {
	Deleted []uuid.UUID `json:"deleted"`
}

type RenumberResponse struct {
	Updated int `json:"updated"`
	Entries int `json:"entries"`
	Weeks   int `json:"weeks"`
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.list")
	defer span.End()

	ownerID, ok := pkg.OwnerIDFromContext(ctx)
	if !ok {
		http.Error(w, "owner not set", http.StatusUnauthorized)
		return
	}

	entries, err := h.service.List(ctx, ownerID)
	if err != nil {
		log.Errorf("list entries for [%s]: %s", ownerID, err)
		http.Error(w, "failed to list entries", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, entries, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.get")
	defer span.End()

	ownerID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Get(ctx, ownerID, id)
	if err != nil {
		writeError(w, "get entry", err)
		return
	}

	pkg.WriteJSON(w, entry, http.StatusOK)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.add")
	defer span.End()

	ownerID, ok := pkg.OwnerIDFromContext(ctx)
	if !ok {
		http.Error(w, "owner not set", http.StatusUnauthorized)
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("add entry, unmarshal json params: %s", err)
		http.Error(w, "invalid entry", http.StatusBadRequest)
		return
	}

	added, err := h.service.Add(ctx, training.Entry{
		OwnerID:         ownerID,
		Status:          req.Status,
		Title:           req.Title,
		Date:            req.Date,
		DistanceKm:      req.DistanceKm,
		DurationSeconds: req.DurationSeconds,
		AvgHeartRate:    req.AvgHeartRate,
	})
	if err != nil {
		writeError(w, "add entry", err)
		return
	}

	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.update")
	defer span.End()

	ownerID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	var changes Changes
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		log.Debugf("update entry, unmarshal json params: %s", err)
		http.Error(w, "invalid entry", http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(ctx, ownerID, id, changes)
	if err != nil {
		writeError(w, "update entry", err)
		return
	}

	pkg.WriteJSON(w, updated, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.delete")
	defer span.End()

	ownerID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(ctx, ownerID, id)
	if err != nil {
		writeError(w, "delete entry", err)
		return
	}

	pkg.WriteJSON(w, DeleteResponse{Deleted: deleted}, http.StatusOK)
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.complete")
	defer span.End()

	ownerID, planID, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	var done Changes
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&done); err != nil {
			log.Debugf("complete planned entry, unmarshal json params: %s", err)
			http.Error(w, "invalid entry", http.StatusBadRequest)
			return
		}
	}

	completed, err := h.service.CompletePlanned(ctx, ownerID, planID, done)
	if err != nil {
		writeError(w, "complete planned entry", err)
		return
	}

	pkg.WriteJSON(w, completed, http.StatusCreated)
}

func (h *Handler) HandleRenumber(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.renumber")
	defer span.End()

	ownerID, ok := pkg.OwnerIDFromContext(ctx)
	if !ok {
		http.Error(w, "owner not set", http.StatusUnauthorized)
		return
	}

	pass, err := h.service.Renumber(ctx, ownerID)
	if err != nil {
		writeError(w, "renumber", err)
		return
	}

	pkg.WriteJSON(w, RenumberResponse{
		Updated: pass.Updated,
		Entries: pass.Entries,
		Weeks:   pass.Weeks,
	}, http.StatusOK)
}

func ownerAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	ownerID, ok := pkg.OwnerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "owner not set", http.StatusUnauthorized)
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}

	return ownerID, id, true
}

func writeError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrRenumberAfterWrite):
		log.Errorf("%s: %s", action, err)
		http.Error(w, "saved, but renumbering failed", http.StatusInternalServerError)
	case errors.Is(err, training.ErrEntryNotFound):
		http.Error(w, "entry not found", http.StatusNotFound)
	case errors.Is(err, training.ErrInvalidEntry),
		errors.Is(err, training.ErrLinkedPlanNotFound),
		errors.Is(err, ErrNotPlanned),
		errors.Is(err, ErrLinkNotAllowed):
		log.Debugf("%s: %s", action, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPlanAlreadyCompleted),
		errors.Is(err, sequencing.ErrInvalidEntrySet),
		errors.Is(err, sequencing.ErrWriteConflict):
		log.Warnf("%s: %s", action, err)
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, sequencing.ErrDataUnavailable):
		log.Errorf("%s: %s", action, err)
		http.Error(w, "training entries unavailable", http.StatusServiceUnavailable)
	default:
		log.Errorf("%s: %s", action, err)
		http.Error(w, action+" failed", http.StatusInternalServerError)
	}
}
