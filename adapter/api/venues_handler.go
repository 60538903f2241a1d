package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
)

// maxBodyBytes bounds write request bodies.
const maxBodyBytes = 1 << 20

// VenueWriteRequest is the body of create and update requests.
type VenueWriteRequest struct {
	Name string `json:"name"`
}

// Handler contracts the venue routes depend on.
type (
	ListVenuesHandler  = sharedApplication.QueryHandler[queries.ListVenuesQuery, []queries.VenueDTO]
	GetVenueHandler    = sharedApplication.QueryHandler[queries.GetVenueQuery, *queries.VenueDTO]
	CreateVenueHandler = sharedApplication.CommandHandler[commands.CreateVenueCommand, *domain.Venue]
	UpdateVenueHandler = sharedApplication.CommandHandler[commands.UpdateVenueCommand, *domain.Venue]
	RemoveVenueHandler = sharedApplication.CommandHandler[commands.RemoveVenueCommand, bool]
)

// VenuesHandler handles venue API requests.
type VenuesHandler struct {
	listVenues  ListVenuesHandler
	getVenue    GetVenueHandler
	createVenue CreateVenueHandler
	updateVenue UpdateVenueHandler
	removeVenue RemoveVenueHandler
	logger      *slog.Logger
}

// VenuesHandlerConfig holds dependencies for the venues handler.
type VenuesHandlerConfig struct {
	ListVenues  ListVenuesHandler
	GetVenue    GetVenueHandler
	CreateVenue CreateVenueHandler
	UpdateVenue UpdateVenueHandler
	RemoveVenue RemoveVenueHandler
	Logger      *slog.Logger
}

// NewVenuesHandler creates a new venues handler.
func NewVenuesHandler(cfg VenuesHandlerConfig) *VenuesHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &VenuesHandler{
		listVenues:  cfg.ListVenues,
		getVenue:    cfg.GetVenue,
		createVenue: cfg.CreateVenue,
		updateVenue: cfg.UpdateVenue,
		removeVenue: cfg.RemoveVenue,
		logger:      cfg.Logger,
	}
}

// ListVenues handles GET /api/venues
func (h *VenuesHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.listVenues.Handle(r.Context(), queries.ListVenuesQuery{})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if len(venues) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

// GetVenue handles GET /api/venues/{id}
func (h *VenuesHandler) GetVenue(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("ETag", venue.EntityTag())
	writeJSON(w, http.StatusOK, venue)
}

// HeadVenue handles HEAD /api/venues/{id}
func (h *VenuesHandler) HeadVenue(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("ETag", venue.EntityTag())
	w.WriteHeader(http.StatusNoContent)
}

func (h *VenuesHandler) fetch(w http.ResponseWriter, r *http.Request) (*queries.VenueDTO, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	venue, err := h.getVenue.Handle(r.Context(), queries.GetVenueQuery{ID: id})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return nil, false
	}
	return venue, true
}

// CreateVenue handles POST /api/venues
func (h *VenuesHandler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	body, err := decodeWriteRequest(w, r)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	venue, err := h.createVenue.Handle(r.Context(), commands.CreateVenueCommand{Name: body.Name})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/venues/"+venue.ID().String())
	writeVenue(w, http.StatusCreated, venue)
}

// UpdateVenue handles PUT /api/venues/{id}. The If-Match header carries the entity tag.
func (h *VenuesHandler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, err := decodeWriteRequest(w, r)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	venue, err := h.updateVenue.Handle(r.Context(), commands.UpdateVenueCommand{
		ID:        id,
		EntityTag: r.Header.Get("If-Match"),
		Name:      body.Name,
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeVenue(w, http.StatusOK, venue)
}

// RemoveVenue handles DELETE /api/venues/{id}. The If-Match header carries the entity tag.
func (h *VenuesHandler) RemoveVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.removeVenue.Handle(r.Context(), commands.RemoveVenueCommand{
		ID:        id,
		EntityTag: r.Header.Get("If-Match"),
	}); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeVenue(w http.ResponseWriter, status int, v *domain.Venue) {
	w.Header().Set("ETag", v.EntityTag())
	writeJSON(w, status, queries.ToVenueDTO(v))
}

// pathID parses the {id} segment. Anything that is not a UUID does not name
// a venue route, so it is answered with a bare 404.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return uuid.Nil, false
	}
	return id, true
}

func decodeWriteRequest(w http.ResponseWriter, r *http.Request) (VenueWriteRequest, error) {
	var body VenueWriteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return body, malformedBody(errors.New("empty body"))
		}
		return body, malformedBody(err)
	}
	return body, nil
}
