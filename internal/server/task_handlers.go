package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Tomlord1122/task-tracker/internal/auth"
	"github.com/Tomlord1122/task-tracker/internal/domain"
	"github.com/Tomlord1122/task-tracker/internal/service"
)

// taskPayload is the body of add and edit requests: the caller's
// credentials next to the task fields.
type taskPayload struct {
	auth.Credentials
	service.TaskRequest
}

func decodeTaskPayload(r *http.Request) (auth.Credentials, service.TaskRequest, error) {
	var p taskPayload
	if err := decodeJSON(r, &p, false); err != nil {
		return auth.Credentials{}, service.TaskRequest{}, err
	}
	p.Credentials.Token = bearerToken(r)
	return p.Credentials, p.TaskRequest, nil
}

func listOptions(r *http.Request) (service.ListOptions, error) {
	q := r.URL.Query()
	opts := service.ListOptions{Sort: domain.ParseSortKey(q.Get("sorting"))}

	if v := q.Get("onlyNotCompleted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, badRequest(fmt.Sprintf("Invalid onlyNotCompleted value %q", v))
		}
		opts.OnlyIncomplete = b
	}
	if v := q.Get("minPriority"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, badRequest(fmt.Sprintf("Invalid minPriority value %q", v))
		}
		opts.MinPriority = &n
	}
	return opts, nil
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondWithServiceError(w, err, "list tasks")
		return
	}
	creds, err := credentials(r)
	if err != nil {
		respondWithServiceError(w, err, "list tasks")
		return
	}

	tasks, err := s.taskService.ListTasks(r.Context(), creds, opts)
	if err != nil {
		respondWithServiceError(w, err, "list tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (s *Server) taskInfoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithServiceError(w, err, "retrieve task")
		return
	}
	creds, err := credentials(r)
	if err != nil {
		respondWithServiceError(w, err, "retrieve task")
		return
	}

	task, err := s.taskService.GetTask(r.Context(), creds, id)
	if err != nil {
		respondWithServiceError(w, err, "retrieve task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) addTaskHandler(w http.ResponseWriter, r *http.Request) {
	creds, req, err := decodeTaskPayload(r)
	if err != nil {
		respondWithServiceError(w, err, "create task")
		return
	}

	task, err := s.taskService.AddTask(r.Context(), creds, req)
	if err != nil {
		respondWithServiceError(w, err, "create task")
		return
	}
	respondCreated(w, task)
}

func (s *Server) addChildTaskHandler(w http.ResponseWriter, r *http.Request) {
	parentID, err := idParam(r, "parentId")
	if err != nil {
		respondWithServiceError(w, err, "create task")
		return
	}
	creds, req, err := decodeTaskPayload(r)
	if err != nil {
		respondWithServiceError(w, err, "create task")
		return
	}

	task, err := s.taskService.AddChildTask(r.Context(), creds, parentID, req)
	if err != nil {
		respondWithServiceError(w, err, "create task")
		return
	}
	respondCreated(w, task)
}

func respondCreated(w http.ResponseWriter, task *service.TaskResponse) {
	w.Header().Set("Location", fmt.Sprintf("/taskinfo/%d", task.ID))
	respondWithJSON(w, http.StatusCreated, task)
}

func (s *Server) editTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithServiceError(w, err, "update task")
		return
	}
	creds, req, err := decodeTaskPayload(r)
	if err != nil {
		respondWithServiceError(w, err, "update task")
		return
	}

	task, err := s.taskService.EditTask(r.Context(), creds, id, req)
	if err != nil {
		respondWithServiceError(w, err, "update task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) tickTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithServiceError(w, err, "update task")
		return
	}
	creds, err := credentials(r)
	if err != nil {
		respondWithServiceError(w, err, "update task")
		return
	}

	task, err := s.taskService.TickTask(r.Context(), creds, id)
	if err != nil {
		respondWithServiceError(w, err, "update task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithServiceError(w, err, "delete task")
		return
	}
	creds, err := credentials(r)
	if err != nil {
		respondWithServiceError(w, err, "delete task")
		return
	}

	if err := s.taskService.DeleteTask(r.Context(), creds, id); err != nil {
		respondWithServiceError(w, err, "delete task")
		return
	}
	w.WriteHeader(http.StatusOK)
}
