/*
handlers.go - HTTP API handlers for the credit-facility engine.

PURPOSE:
  Exposes the facility engine via a REST API. Handles HTTP
  request/response, JSON (de)serialization, and delegates every piece
  of domain logic to the facility package. Handlers never touch a
  balance or status field directly.

ENDPOINTS:
  Facilities:
    GET    /api/facilities                List all facilities
    POST   /api/facilities                Create a facility
    GET    /api/facilities/{id}           Stable JSON readout (facility.JSON)
    POST   /api/facilities/{id}/approve   Originated -> Active
    POST   /api/facilities/{id}/deny      Originated -> Cancelled
    POST   /api/facilities/{id}/disburse  Draw down principal
    POST   /api/facilities/{id}/payments  Apply a payment
    POST   /api/facilities/{id}/scheduled-payment  Debit the period's installment
    POST   /api/facilities/{id}/accrue    Force an accrual sweep
    POST   /api/facilities/{id}/daily-status       Run the daily sweep
    POST   /api/facilities/{id}/collateral         Update collateral valuation
    POST   /api/facilities/{id}/liquidation-proceeds  Apply liquidation proceeds
    GET    /api/facilities/{id}/events    Drain the pending event log

  Scenarios:
    GET    /api/scenarios            List demo scenarios
    POST   /api/scenarios/load       Build and run one end-to-end

  Admin (test clock only):
    POST   /api/admin/advance-time   Advance the bound clock.Test

SEE ALSO:
  - server.go: router wiring.
  - dto.go: wire types.
  - cmd/server/main.go: startup.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/facility"
	"github.com/warp/credit-facility/money"
	"github.com/warp/credit-facility/store"
)

// Handler holds every dependency the facility endpoints need: the
// in-memory registry of live facilities (the source of truth while the
// process is up), the shared clock, and the audit store that archives
// drained events.
type Handler struct {
	mu         sync.RWMutex
	facilities map[string]*facility.Facility

	clk   clock.Provider
	store *store.Store
}

// NewHandler creates a Handler bound to clk and store.
func NewHandler(clk clock.Provider, st *store.Store) *Handler {
	return &Handler{
		facilities: make(map[string]*facility.Facility),
		clk:        clk,
		store:      st,
	}
}

// ===========================================================================
// facility lookup
// ===========================================================================

func (h *Handler) facility(id string) (*facility.Facility, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	f, ok := h.facilities[id]
	return f, ok
}

func (h *Handler) register(f *facility.Facility) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.facilities[f.ID] = f
}

// persist archives any events the facility has accumulated since the
// last drain and refreshes the snapshot cache. Called after every
// mutating operation that succeeds; handlers return before reaching it
// when the operation fails.
func (h *Handler) persist(r *http.Request, f *facility.Facility) {
	events := f.TakeEvents()
	if len(events) > 0 {
		_ = h.store.AppendEvents(r.Context(), f.ID, events)
	}
	snap, err := f.JSON()
	if err != nil {
		return
	}
	_ = h.store.UpsertFacility(r.Context(), f.ID, f.Config().AccountID, f.Config().CustomerID,
		string(f.Config().Kind.Tag), "{}", snap, h.clk.Now().String())
}

// ===========================================================================
// request/response plumbing
// ===========================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusForError maps a facility error to an HTTP status. Invariant
// violations never surface here (they're impossible by construction);
// everything the engine returns is a client-correctable request error,
// including InvalidConfig — at the HTTP boundary a bad FacilityConfig
// is exactly a bad request body.
func statusForError(err error) int {
	switch {
	case errors.Is(err, facility.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, facility.ErrFacilityClosed),
		errors.Is(err, facility.ErrFacilityNotActive),
		errors.Is(err, facility.ErrNotApproved),
		errors.Is(err, facility.ErrLiquidationInProgress):
		return http.StatusConflict
	case errors.Is(err, facility.ErrInvalidAmount),
		errors.Is(err, facility.ErrZeroPayment),
		errors.Is(err, facility.ErrOverCommitment),
		errors.Is(err, facility.ErrOverLimit),
		errors.Is(err, facility.ErrNoCollateral):
		return http.StatusUnprocessableEntity
	case errors.Is(err, facility.ErrAccrualBackwards):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ===========================================================================
// create / list / read
// ===========================================================================

// CreateFacility builds a FacilityConfig from the request, validates it,
// and constructs a new Facility in status Originated.
func (h *Handler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var req CreateFacilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := buildConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg, err = facility.NewFacilityConfig(cfg)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := h.facility(id); exists {
		writeError(w, http.StatusConflict, errors.New("facility id already exists"))
		return
	}

	f := facility.New(id, cfg, h.clk)
	h.register(f)
	h.persist(r, f)

	snap, _ := f.JSON()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(snap))
}

// ListFacilities returns every known facility as a summary row.
func (h *Handler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]FacilitySummaryDTO, 0, len(h.facilities))
	for id, f := range h.facilities {
		out = append(out, FacilitySummaryDTO{
			ID:     id,
			Status: f.State().Status,
			Kind:   string(f.Config().Kind.Tag),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetFacility returns the stable JSON readout for one facility.
func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	snap, err := f.JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(snap))
}

// ===========================================================================
// lifecycle
// ===========================================================================

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	if err := f.Approve(); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	snap, _ := f.JSON()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(snap))
}

func (h *Handler) Deny(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	if err := f.Deny(); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	snap, _ := f.JSON()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(snap))
}

func (h *Handler) Disburse(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := money.FromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	disbursed, err := f.Disburse(amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, map[string]string{"disbursed": disbursed.String()})
}

func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := money.FromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	app, err := f.MakePayment(amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, toPaymentApplicationDTO(app))
}

func (h *Handler) ProcessScheduledPayment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	app, err := f.ProcessScheduledPayment()
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, toPaymentApplicationDTO(app))
}

func (h *Handler) AccrueInterest(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	report, err := f.AccrueInterest()
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, toAccrualReportDTO(report))
}

func (h *Handler) UpdateDailyStatus(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	report, err := f.UpdateDailyStatus()
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, toStatusReportDTO(report))
}

func (h *Handler) UpdateCollateral(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	var req CollateralUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	currentValue, err := money.FromString(req.CurrentValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := f.UpdateCollateral(req.AssetAmount, currentValue, req.ValuationSource)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, toLtvStatusDTO(status))
}

func (h *Handler) ApplyLiquidationProceeds(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := money.FromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	app, err := f.ApplyLiquidationProceeds(amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	h.persist(r, f)
	writeJSON(w, http.StatusOK, toPaymentApplicationDTO(app))
}

// ListEvents drains the facility's pending event log (also archiving it
// to the store) and returns it to the caller.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	f, ok := h.facility(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("facility not found"))
		return
	}
	events := f.TakeEvents()
	if len(events) > 0 {
		_ = h.store.AppendEvents(r.Context(), f.ID, events)
	}
	out := make([]EventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// ===========================================================================
// admin (test clock only)
// ===========================================================================

// AdvanceTimeRequest is the body for POST /api/admin/advance-time.
type AdvanceTimeRequest struct {
	Days int `json:"days"`
}

// AdvanceTime moves the bound clock forward, if it is a clock.Test. Used
// by demo scenarios and by operators exercising grace/delinquency flows
// without waiting in real time.
func (h *Handler) AdvanceTime(w http.ResponseWriter, r *http.Request) {
	test, ok := h.clk.(*clock.Test)
	if !ok {
		writeError(w, http.StatusConflict, errors.New("server is not running a test clock"))
		return
	}
	var req AdvanceTimeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Days < 0 {
		writeError(w, http.StatusBadRequest, errors.New("days must be non-negative"))
		return
	}
	test.Advance(time.Duration(req.Days) * 24 * time.Hour)
	writeJSON(w, http.StatusOK, map[string]string{"now": h.clk.Now().String()})
}
