package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	v1 "github.com/adanyl0v/task-tracker/internal/delivery/http/v1"
	"github.com/adanyl0v/task-tracker/internal/services"
	"github.com/adanyl0v/task-tracker/internal/storage/sqlite"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.Open(zerolog.Nop(), sqlite.Config{
		Path:     filepath.Join(t.TempDir(), "http.db"),
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	hasher := services.NewPasswordHasher(&argon2id.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	tokens := services.NewTokenService(logger, "task-tracker", []byte("test-signing-key"), 30*time.Minute)
	handler := v1.New(
		logger,
		services.NewAuthService(logger, store, tokens, hasher),
		services.NewTaskService(logger, store),
		services.NewUserService(logger, store),
	)

	router := gin.New()
	router.Use(handler.HandleRequestLogger)
	handler.RegisterRoutes(router)
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(username, password, role string) map[string]any {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d, body %s", username, rec.Code, rec.Body)
	}
	return decodeObject(s.t, rec)
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body)
	}

	body := decodeObject(s.t, rec)
	if body["token_type"] != "bearer" {
		s.t.Errorf("token_type = %v, want bearer", body["token_type"])
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		s.t.Fatalf("login %s: empty access token", username)
	}
	return token
}

// signUp registers and logs in a user, returning its id and token.
func (s *testServer) signUp(username, role string) (int64, string) {
	s.t.Helper()
	user := s.register(username, "secret1", role)
	return int64(user["id"].(float64)), s.login(username, "secret1")
}

func (s *testServer) createTask(token, name string) int64 {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/tasks", token, map[string]string{"name": name})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create task %q: status %d, body %s", name, rec.Code, rec.Body)
	}
	return int64(decodeObject(s.t, rec)["id"].(float64))
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var body []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAliceScenario(t *testing.T) {
	s := newTestServer(t)

	alice := s.register("alice", "secret1", "user")
	aliceID := alice["id"].(float64)
	token := s.login("alice", "secret1")

	rec := s.do(http.MethodPost, "/tasks", token, map[string]string{
		"name":   "Buy groceries",
		"status": "pending",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", rec.Code, rec.Body)
	}
	task := decodeObject(t, rec)
	if task["owner_id"] != aliceID || task["owner_username"] != "alice" {
		t.Errorf("task owner = %v/%v, want %v/alice", task["owner_id"], task["owner_username"], aliceID)
	}

	rec = s.do(http.MethodGet, "/my-tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my-tasks: status %d, body %s", rec.Code, rec.Body)
	}
	tasks := decodeList(t, rec)
	if len(tasks) != 1 || tasks[0]["id"] != task["id"] || tasks[0]["name"] != "Buy groceries" {
		t.Errorf("my-tasks = %v, want exactly the created task", tasks)
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	user := s.register("bob", "secret1", "")
	if user["role"] != "user" {
		t.Errorf("role = %v, want user", user["role"])
	}
	for _, key := range []string{"password", "password_hash", "PasswordHash"} {
		if _, ok := user[key]; ok {
			t.Errorf("response exposes %q: %v", key, user)
		}
	}
	for _, key := range []string{"id", "username", "role", "created_at"} {
		if _, ok := user[key]; !ok {
			t.Errorf("response misses %q: %v", key, user)
		}
	}

	rec := s.do(http.MethodPost, "/register", "", map[string]string{
		"username": "bob",
		"password": "another1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate register: status %d, want 400", rec.Code)
	}

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short username", map[string]string{"username": "bo", "password": "secret1"}},
		{"username with space", map[string]string{"username": "bo b", "password": "secret1"}},
		{"short password", map[string]string{"username": "carol", "password": "12345"}},
		{"unknown role", map[string]string{"username": "carol", "password": "secret1", "role": "root"}},
		{"missing password", map[string]string{"username": "carol"}},
		{"invalid and duplicate", map[string]string{"username": "bob", "password": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/register", "", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status %d, want 422, body %s", rec.Code, rec.Body)
			}
			body := decodeObject(t, rec)
			if details, _ := body["details"].([]any); len(details) == 0 {
				t.Errorf("no validation details: %v", body)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("bob", "secret1", "")

	rec := s.do(http.MethodPost, "/token", "", map[string]string{
		"username": "bob",
		"password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("json login: status %d, body %s", rec.Code, rec.Body)
	}

	for _, creds := range []map[string]string{
		{"username": "bob", "password": "wrong-password"},
		{"username": "nobody", "password": "secret1"},
	} {
		rec := s.do(http.MethodPost, "/token", "", creds)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login %v: status %d, want 401", creds, rec.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic Ym9iOnNlY3JldDE="},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status %d, want 401", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want Bearer", got)
			}
		})
	}

	_, token := s.signUp("bob", "")
	rec := s.do(http.MethodGet, "/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d, body %s", rec.Code, rec.Body)
	}
	if me := decodeObject(t, rec); me["username"] != "bob" {
		t.Errorf("me = %v, want bob", me)
	}
}

func TestTaskNameBoundaries(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signUp("bob", "")

	tests := []struct {
		name     string
		taskName string
		want     int
	}{
		{"four chars", "Abcd", http.StatusUnprocessableEntity},
		{"five chars", "Abcde", http.StatusCreated},
		{"fifty chars", "A" + strings.Repeat("b", 49), http.StatusCreated},
		{"fifty one chars", "A" + strings.Repeat("b", 50), http.StatusUnprocessableEntity},
		{"digit first", "1abcde", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/tasks", token, map[string]string{"name": tt.taskName})
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d, body %s", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec := s.do(http.MethodPost, "/tasks", token, map[string]string{"name": "Valid name", "status": "done"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad status: %d, want 422", rec.Code)
	}
}

func TestTaskAccess(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.signUp("alice", "user")
	_, bobToken := s.signUp("bob", "user")
	_, adminToken := s.signUp("admin", "admin")

	taskID := s.createTask(aliceToken, "Buy groceries")
	taskPath := fmt.Sprintf("/task/%d", taskID)
	missingPath := fmt.Sprintf("/task/%d", taskID+100)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"owner reads", http.MethodGet, taskPath, aliceToken, nil, http.StatusOK},
		{"admin reads", http.MethodGet, taskPath, adminToken, nil, http.StatusOK},
		{"stranger reads", http.MethodGet, taskPath, bobToken, nil, http.StatusForbidden},
		{"stranger reads missing", http.MethodGet, missingPath, bobToken, nil, http.StatusNotFound},
		{"stranger updates", http.MethodPut, taskPath, bobToken, map[string]string{"status": "completed"}, http.StatusForbidden},
		{"stranger updates missing", http.MethodPut, missingPath, bobToken, map[string]string{"status": "completed"}, http.StatusNotFound},
		{"owner invalid update", http.MethodPut, taskPath, aliceToken, map[string]string{"name": "No"}, http.StatusUnprocessableEntity},
		{"admin updates", http.MethodPut, taskPath, adminToken, map[string]string{"status": "in progress"}, http.StatusOK},
		{"stranger deletes", http.MethodDelete, taskPath, bobToken, nil, http.StatusForbidden},
		{"non-integer id", http.MethodGet, "/task/abc", aliceToken, nil, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d, body %s", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec := s.do(http.MethodGet, taskPath, aliceToken, nil)
	task := decodeObject(t, rec)
	if task["status"] != "in progress" || task["name"] != "Buy groceries" {
		t.Errorf("task after partial update = %v", task)
	}

	rec = s.do(http.MethodDelete, taskPath, aliceToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: status %d", rec.Code)
	}
	rec = s.do(http.MethodGet, taskPath, aliceToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestListTasks(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.signUp("alice", "user")
	_, bobToken := s.signUp("bob", "user")
	_, adminToken := s.signUp("admin", "admin")

	s.createTask(aliceToken, "Alice chores")
	s.createTask(aliceToken, "Another chore")
	s.createTask(bobToken, "Bob chores")

	count := func(t *testing.T, path, token string) int {
		t.Helper()
		rec := s.do(http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d, body %s", path, rec.Code, rec.Body)
		}
		return len(decodeList(t, rec))
	}

	if n := count(t, "/tasks", aliceToken); n != 2 {
		t.Errorf("alice /tasks = %d, want 2", n)
	}
	if n := count(t, "/tasks", adminToken); n != 3 {
		t.Errorf("admin /tasks = %d, want 3", n)
	}
	if n := count(t, "/my-tasks", adminToken); n != 0 {
		t.Errorf("admin /my-tasks = %d, want 0", n)
	}
	if n := count(t, "/tasks?starts_with=Al", adminToken); n != 1 {
		t.Errorf("admin /tasks?starts_with=Al = %d, want 1", n)
	}
	if n := count(t, "/tasks?limit=1&offset=1", adminToken); n != 1 {
		t.Errorf("admin /tasks?limit=1&offset=1 = %d, want 1", n)
	}

	rec := s.do(http.MethodGet, "/tasks?offset=50", aliceToken, nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("offset beyond count: status %d, body %s, want 200 []", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodGet, "/tasks?sort_by=asc", aliceToken, nil)
	tasks := decodeList(t, rec)
	if len(tasks) != 2 || tasks[0]["name"] != "Alice chores" {
		t.Errorf("sort_by=asc = %v", tasks)
	}

	for _, q := range []string{"limit=-1", "limit=1001", "limit=abc", "offset=-1", "status=done", "sort_by=up"} {
		rec := s.do(http.MethodGet, "/tasks?"+q, aliceToken, nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("/tasks?%s: status %d, want 422", q, rec.Code)
		}
	}
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.signUp("alice", "user")
	_, adminToken := s.signUp("admin", "admin")

	rec := s.do(http.MethodGet, "/users", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user /users: status %d, want 403", rec.Code)
	}

	rec = s.do(http.MethodGet, "/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin /users: status %d", rec.Code)
	}
	users := decodeList(t, rec)
	if len(users) != 2 {
		t.Errorf("admin /users = %v, want 2 users", users)
	}
	for _, user := range users {
		if _, ok := user["password_hash"]; ok {
			t.Errorf("user list exposes password hash: %v", user)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || decodeObject(t, rec)["status"] != "ok" {
		t.Errorf("health: status %d, body %s", rec.Code, rec.Body)
	}
}
