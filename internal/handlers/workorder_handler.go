package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/cache"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/middleware"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/repositories"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/workorders"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/pkg/utils"
)

type WorkOrderHandler struct {
	Registry    *workorders.Registry
	ProjectRepo *repositories.ProjectRepository
}

func NewWorkOrderHandler(reg *workorders.Registry, projectRepo *repositories.ProjectRepository) *WorkOrderHandler {
	return &WorkOrderHandler{Registry: reg, ProjectRepo: projectRepo}
}

// store resolves the schema path segment to a store, refusing schemas that
// no project owns.
func (h *WorkOrderHandler) store(w http.ResponseWriter, r *http.Request) *workorders.Store {
	schema := mux.Vars(r)["schema"]
	if _, err := h.ProjectRepo.GetBySchema(r.Context(), schema); err != nil {
		utils.Error(w, http.StatusNotFound, "Unknown project schema")
		return nil
	}
	return h.Registry.Store(schema)
}

// decodePatch parses a partial-update body, rejecting fields outside the
// canonical set.
func decodePatch(r *http.Request) (*models.WorkOrderPatch, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var p models.WorkOrderPatch
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	filters := models.ListFilters{
		Status:        r.URL.Query().Get("status"),
		AssignedGroup: r.URL.Query().Get("assignedGroupId"),
	}
	if v := r.URL.Query().Get("assignedUserId"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			filters.AssignedUserID = &id
		}
	}

	orders, err := store.List(r.Context(), filters)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	wo, err := store.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wo == nil {
		utils.Error(w, http.StatusNotFound, "Work order not found")
		return
	}
	utils.JSON(w, http.StatusOK, wo)
}

func (h *WorkOrderHandler) GetByCustomerWoID(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	wo, err := store.GetByCustomerWoID(r.Context(), mux.Vars(r)["woid"])
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wo == nil {
		utils.Error(w, http.StatusNotFound, "Work order not found")
		return
	}
	utils.JSON(w, http.StatusOK, wo)
}

func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}
	p, err := decodePatch(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	wo, err := store.Create(r.Context(), p, middleware.Actor(r.Context()))
	if err != nil {
		// Duplicate business ids and unknown lookup codes come back as
		// constraint violations; the write is rejected, not retried.
		utils.Error(w, http.StatusConflict, err.Error())
		return
	}
	cache.InvalidateStats(r.Context(), mux.Vars(r)["schema"])
	utils.JSON(w, http.StatusCreated, wo)
}

func (h *WorkOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	p, err := decodePatch(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	wo, err := store.Update(r.Context(), id, p, middleware.Actor(r.Context()))
	if err != nil {
		utils.Error(w, http.StatusConflict, err.Error())
		return
	}
	if wo == nil {
		utils.Error(w, http.StatusNotFound, "Work order not found")
		return
	}
	cache.InvalidateStats(r.Context(), mux.Vars(r)["schema"])
	utils.JSON(w, http.StatusOK, wo)
}

func (h *WorkOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	deleted, err := store.Delete(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		utils.Error(w, http.StatusNotFound, "Work order not found")
		return
	}
	cache.InvalidateStats(r.Context(), mux.Vars(r)["schema"])
	utils.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *WorkOrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}
	schema := mux.Vars(r)["schema"]

	if stats, ok := cache.GetStats(r.Context(), schema); ok {
		utils.JSON(w, http.StatusOK, stats)
		return
	}

	stats, err := store.Stats(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	cache.SetStats(r.Context(), schema, stats)
	utils.JSON(w, http.StatusOK, stats)
}

// Import receives column-mapped rows from the scheduled import pipeline.
// Best effort: the response reports per-row errors, never a batch abort.
func (h *WorkOrderHandler) Import(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	var rows []map[string]string
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := store.ImportRecords(r.Context(), rows, middleware.Actor(r.Context()))
	cache.InvalidateStats(r.Context(), mux.Vars(r)["schema"])
	utils.JSON(w, http.StatusOK, res)
}

// BulkUpsert receives typed patches instead of column-mapped rows, for
// callers that already speak the canonical field set. Same best-effort
// batch semantics as Import.
func (h *WorkOrderHandler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	if store == nil {
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var patches []*models.WorkOrderPatch
	if err := dec.Decode(&patches); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := store.BulkUpsert(r.Context(), patches, middleware.Actor(r.Context()))
	cache.InvalidateStats(r.Context(), mux.Vars(r)["schema"])
	utils.JSON(w, http.StatusOK, res)
}
