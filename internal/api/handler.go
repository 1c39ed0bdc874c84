package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/podushkina/taskflow/internal/service"
	"github.com/podushkina/taskflow/internal/task"
	"go.uber.org/zap"
)

type Handler struct {
	tasks  service.TaskService
	logger *zap.Logger
}

func NewHandler(tasks service.TaskService, logger *zap.Logger) *Handler {
	return &Handler{tasks: tasks, logger: logger}
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.tasks.CreateTask(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.GetAllTasks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListTasksPaginated(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := task.DefaultPageRequest()
	verrs := validation.Errors{}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verrs["page"] = errors.New("page must be an integer")
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verrs["size"] = errors.New("size must be an integer")
		}
		req.Size = n
	}
	if v := q.Get("sortBy"); v != "" {
		req.SortBy = v
	}
	if v := q.Get("direction"); v != "" {
		req.Direction = strings.ToUpper(v)
	}

	if len(verrs) > 0 {
		h.writeError(w, r, verrs)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.tasks.GetAllTasksPaginated(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	resp, err := h.tasks.GetTaskByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListTasksByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := task.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeError(w, r, validation.Errors{"status": err})
		return
	}

	tasks, err := h.tasks.GetTasksByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListTasksByPriority(w http.ResponseWriter, r *http.Request) {
	priority, err := task.ParsePriority(chi.URLParam(r, "priority"))
	if err != nil {
		h.writeError(w, r, validation.Errors{"priority": err})
		return
	}

	tasks, err := h.tasks.GetTasksByPriority(r.Context(), priority)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if strings.TrimSpace(keyword) == "" {
		h.writeError(w, r, validation.Errors{"keyword": errors.New("keyword is required")})
		return
	}

	tasks, err := h.tasks.SearchTasksByName(r.Context(), keyword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) TaskExists(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		h.writeError(w, r, validation.Errors{"name": errors.New("name is required")})
		return
	}

	ok, err := h.tasks.TaskExistsByName(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

func (h *Handler) TaskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tasks.GetTaskStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.tasks.UpdateTask(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteTasksByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := task.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeError(w, r, validation.Errors{"status": err})
		return
	}

	n, err := h.tasks.DeleteTasksByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, validation.Errors{"id": errors.New("id must be a positive integer")})
		return 0, false
	}
	return id, true
}

// decodeRequest reads and validates a create/update body. Unknown fields such as
// status are ignored.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (task.Request, bool) {
	var req task.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return req, false
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, err)
		return req, false
	}
	return req, true
}
