package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/repositories"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/tenant"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/workorders"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/pkg/utils"
)

type ProjectHandler struct {
	Repo        *repositories.ProjectRepository
	Provisioner *tenant.Provisioner
	Registry    *workorders.Registry
}

func NewProjectHandler(repo *repositories.ProjectRepository, prov *tenant.Provisioner, reg *workorders.Registry) *ProjectHandler {
	return &ProjectHandler{Repo: repo, Provisioner: prov, Registry: reg}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.Repo.Create(r.Context(), req.Name)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	schema, err := h.Provisioner.Create(r.Context(), project.Name, project.ID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Repo.SetSchemaName(r.Context(), project.ID, schema); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	project.SchemaName = schema

	utils.JSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Repo.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, projects)
}

// DeleteProject drops the project's schema and all its work orders. Hard
// delete, no recovery; the UI confirms intent before calling this.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	project, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Project not found")
		return
	}

	if project.SchemaName != "" {
		if err := h.Provisioner.Destroy(r.Context(), project.SchemaName); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.Registry.Forget(project.SchemaName)
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
