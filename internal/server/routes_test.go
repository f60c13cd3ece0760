package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/task-tracker/internal/auth"
	"github.com/Tomlord1122/task-tracker/internal/repository/memory"
	"github.com/Tomlord1122/task-tracker/internal/service"
)

type stubHealth map[string]string

func (h stubHealth) Health() map[string]string { return h }

func newTestHandler(t *testing.T, health HealthChecker) http.Handler {
	t.Helper()
	store := memory.New()
	hasher := auth.NewBcryptHasher(4)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	resolver := auth.NewResolver(store.Users(), hasher, tokens)

	s := &Server{
		taskService: service.NewTaskService(store.Tasks(), resolver),
		userService: service.NewUserService(store.Users(), hasher, resolver, tokens),
		health:      health,
	}
	return s.RegisterRoutes()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func taskNames(tasks []service.TaskResponse) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Name)
	}
	return out
}

func TestHelloHandler(t *testing.T) {
	rr := do(t, newTestHandler(t, stubHealth{}), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hello World from the task tracker!", decode[map[string]string](t, rr)["message"])
}

func TestHealthHandler(t *testing.T) {
	rr := do(t, newTestHandler(t, stubHealth{"status": "up"}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, newTestHandler(t, stubHealth{"status": "down"}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAddTaskAndTaskInfo(t *testing.T) {
	h := newTestHandler(t, stubHealth{})

	rr := do(t, h, http.MethodPost, "/addtask", `{"name":"buy milk","priority":2}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[service.TaskResponse](t, rr)
	assert.Equal(t, fmt.Sprintf("/taskinfo/%d", created.ID), rr.Header().Get("Location"))
	assert.Equal(t, "", created.Description)

	rr = do(t, h, http.MethodPost, rr.Header().Get("Location"), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decode[service.TaskResponse](t, rr))
}

func TestAddTaskValidation(t *testing.T) {
	h := newTestHandler(t, stubHealth{})

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty name", `{"name":""}`, "task must have a name"},
		{"empty body", "", "Request body must not be empty"},
		{"unknown field", `{"name":"x","colour":"red"}`, `Request body contains unknown field "colour"`},
		{"bad type", `{"name":"x","priority":"high"}`, "Request body contains an invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/addtask", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decode[map[string]string](t, rr)["error"], tt.wantErr)
		})
	}

	rr := do(t, h, http.MethodPost, "/listtasks", "")
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestListTasksOrdersHierarchy(t *testing.T) {
	h := newTestHandler(t, stubHealth{})

	rr := do(t, h, http.MethodPost, "/addtask", `{"name":"A"}`)
	parent := decode[service.TaskResponse](t, rr)
	rr = do(t, h, http.MethodPost, fmt.Sprintf("/addchildtask/%d", parent.ID), `{"name":"B-child"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	do(t, h, http.MethodPost, "/addtask", `{"name":"C"}`)

	rr = do(t, h, http.MethodPost, "/listtasks?sorting=name", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"A", "B-child", "C"}, taskNames(decode[[]service.TaskResponse](t, rr)))

	rr = do(t, h, http.MethodPost, "/listtasks?minPriority=oops", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodPost, "/listtasks?onlyNotCompleted=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddChildUnderChildIsRejected(t *testing.T) {
	h := newTestHandler(t, stubHealth{})

	parent := decode[service.TaskResponse](t, do(t, h, http.MethodPost, "/addtask", `{"name":"parent"}`))
	kid := decode[service.TaskResponse](t, do(t, h, http.MethodPost, fmt.Sprintf("/addchildtask/%d", parent.ID), `{"name":"kid"}`))

	rr := do(t, h, http.MethodPost, fmt.Sprintf("/addchildtask/%d", kid.ID), `{"name":"grandkid"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/listtasks", "")
	assert.Len(t, decode[[]service.TaskResponse](t, rr), 2)
}

func TestRegisterTwice(t *testing.T) {
	h := newTestHandler(t, stubHealth{})

	rr := do(t, h, http.MethodPost, "/user/register", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", decode[service.UserResponse](t, rr).Username)

	rr = do(t, h, http.MethodPost, "/user/register", `{"username":"alice","password":"pw2"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[map[string]string](t, rr)["error"], "already exists")
}

func TestCrossAccountAccessIsUnauthorized(t *testing.T) {
	h := newTestHandler(t, stubHealth{})
	do(t, h, http.MethodPost, "/user/register", `{"username":"x","password":"px"}`)
	do(t, h, http.MethodPost, "/user/register", `{"username":"y","password":"py"}`)

	rr := do(t, h, http.MethodPost, "/addtask", `{"username":"x","password":"px","name":"x's task"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := decode[service.TaskResponse](t, rr).ID
	asY := `{"username":"y","password":"py"}`

	rr = do(t, h, http.MethodPatch, fmt.Sprintf("/edittask/%d", id), `{"username":"y","password":"py","name":"mine now"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = do(t, h, http.MethodPatch, fmt.Sprintf("/ticktask/%d", id), asY)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = do(t, h, http.MethodPost, fmt.Sprintf("/deletetask/%d", id), asY)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = do(t, h, http.MethodPost, fmt.Sprintf("/taskinfo/%d", id), asY)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodPost, fmt.Sprintf("/taskinfo/%d", id), `{"username":"x","password":"px"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "x's task", decode[service.TaskResponse](t, rr).Name)
}

func TestAuthenticationFailuresAreBadRequests(t *testing.T) {
	h := newTestHandler(t, stubHealth{})
	do(t, h, http.MethodPost, "/user/register", `{"username":"alice","password":"pw"}`)

	rr := do(t, h, http.MethodPost, "/listtasks", `{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid password", decode[map[string]string](t, rr)["error"])

	rr = do(t, h, http.MethodPost, "/listtasks", `{"username":"ghost"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTickEditDelete(t *testing.T) {
	h := newTestHandler(t, stubHealth{})
	id := decode[service.TaskResponse](t, do(t, h, http.MethodPost, "/addtask", `{"name":"chores"}`)).ID

	rr := do(t, h, http.MethodPatch, fmt.Sprintf("/ticktask/%d", id), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[service.TaskResponse](t, rr).IsComplete)

	rr = do(t, h, http.MethodPatch, fmt.Sprintf("/edittask/%d", id), `{"name":"more chores","dueDate":"2026-12-24T18:00:00+01:00"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	edited := decode[service.TaskResponse](t, rr)
	assert.Equal(t, "more chores", edited.Name)
	assert.Equal(t, "2026-12-24T17:00:00Z", edited.DueDate)
	assert.False(t, edited.IsComplete)

	rr = do(t, h, http.MethodPost, fmt.Sprintf("/deletetask/%d", id), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodPost, fmt.Sprintf("/taskinfo/%d", id), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodPost, "/taskinfo/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginAndBearerToken(t *testing.T) {
	h := newTestHandler(t, stubHealth{})
	do(t, h, http.MethodPost, "/user/register", `{"username":"alice","password":"pw"}`)

	rr := do(t, h, http.MethodPost, "/user/login", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	token := decode[service.LoginResponse](t, rr).Token
	bearer := []string{"Authorization", "Bearer " + token}

	rr = do(t, h, http.MethodPost, "/addtask", `{"name":"via token"}`, bearer...)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, decode[service.TaskResponse](t, rr).UserID)

	rr = do(t, h, http.MethodPost, "/listtasks", "", bearer...)
	assert.Equal(t, []string{"via token"}, taskNames(decode[[]service.TaskResponse](t, rr)))

	rr = do(t, h, http.MethodPost, "/listtasks", "")
	assert.Empty(t, decode[[]service.TaskResponse](t, rr))

	rr = do(t, h, http.MethodPost, "/user/remove", "", bearer...)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodPost, "/listtasks", "", bearer...)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
