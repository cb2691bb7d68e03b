package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/mohini/user-service/internal/application"
	"github.com/mohini/user-service/internal/domain/entity"
	"github.com/mohini/user-service/internal/domain/repository"
	"github.com/mohini/user-service/pkg/response"
	"github.com/mohini/user-service/pkg/validation"
)

// ---- in-memory repository ----

type memUserRepository struct {
	users   map[int64]*entity.User
	nextID  int64
	failAll bool // every call returns a generic storage error
}

var errStorage = errors.New("storage down")

func newMemRepo() *memUserRepository {
	return &memUserRepository{users: map[int64]*entity.User{}, nextID: 1}
}

func (m *memUserRepository) Create(_ context.Context, u *entity.User) error {
	if m.failAll {
		return errStorage
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if m.failAll {
		return nil, errStorage
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if m.failAll {
		return nil, errStorage
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	if m.failAll {
		return nil, errStorage
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	if m.failAll {
		return false, errStorage
	}
	_, ok := m.users[id]
	return ok, nil
}

func (m *memUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if m.failAll {
		return false, errStorage
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	if m.failAll {
		return false, errStorage
	}
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepository) List(_ context.Context) ([]entity.User, error) {
	if m.failAll {
		return nil, errStorage
	}
	out := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserRepository) Update(_ context.Context, u *entity.User) error {
	if m.failAll {
		return errStorage
	}
	stored, ok := m.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Username = u.Username
	stored.Email = u.Email
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

func (m *memUserRepository) Delete(_ context.Context, id int64) error {
	if m.failAll {
		return errStorage
	}
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepository) Count(_ context.Context) (int64, error) {
	if m.failAll {
		return 0, errStorage
	}
	return int64(len(m.users)), nil
}

func (m *memUserRepository) FindByFirstName(_ context.Context, _ string) ([]entity.User, error) {
	return m.List(context.Background())
}

func (m *memUserRepository) FindByLastName(_ context.Context, _ string) ([]entity.User, error) {
	return m.List(context.Background())
}

func (m *memUserRepository) SearchByUsername(_ context.Context, _ string) ([]entity.User, error) {
	return m.List(context.Background())
}

func (m *memUserRepository) ListCreatedBetween(_ context.Context, from, to time.Time) ([]entity.User, error) {
	return m.List(context.Background())
}

var _ repository.UserRepository = (*memUserRepository)(nil)

// ---- helpers ----

var initValidation sync.Once

func newTestRouter(repo repository.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	initValidation.Do(validation.Init)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := userapp.NewService(repo, logger, nil, "")
	h := NewUserHandler(svc, logger)

	r := gin.New()
	users := r.Group("/users")
	{
		users.POST("", h.Create)
		users.GET("", h.List)
		users.GET("/:id", h.Get)
		users.PUT("/:id", h.Update)
		users.DELETE("/:id", h.Delete)
		users.GET("/email/:email", h.GetByEmail)
		users.GET("/username/:username", h.GetByUsername)
		users.GET("/exists/email/:email", h.ExistsByEmail)
		users.GET("/exists/username/:username", h.ExistsByUsername)
		users.GET("/count", h.Count)
		users.GET("/search/firstname/:name", h.FindByFirstName)
		users.GET("/created", h.ListCreatedBetween)
	}
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validCreateBody() map[string]any {
	return map[string]any{
		"username":  "john_doe",
		"email":     "john@example.com",
		"password":  "password123",
		"firstName": "John",
		"lastName":  "Doe",
	}
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body
}

// ---- tests ----

func TestCreateUserReturns201WithoutPassword(t *testing.T) {
	router := newTestRouter(newMemRepo())

	w := doRequest(router, http.MethodPost, "/users", validCreateBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] == nil || body["id"].(float64) == 0 {
		t.Fatal("missing assigned id")
	}
	if _, ok := body["password"]; ok {
		t.Fatal("response leaks password field")
	}
	if body["createdAt"] != body["updatedAt"] {
		t.Fatalf("createdAt %v != updatedAt %v", body["createdAt"], body["updatedAt"])
	}
	if body["username"] != "john_doe" || body["email"] != "john@example.com" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreateDuplicateEmailReturns409(t *testing.T) {
	router := newTestRouter(newMemRepo())
	doRequest(router, http.MethodPost, "/users", validCreateBody())

	second := validCreateBody()
	second["username"] = "another_name"
	w := doRequest(router, http.MethodPost, "/users", second)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeErrorBody(t, w)
	if body.Code != "DUPLICATE_USER" {
		t.Fatalf("code=%s", body.Code)
	}
	if body.Status != http.StatusConflict || body.Error != "Conflict" {
		t.Fatalf("status=%d error=%q", body.Status, body.Error)
	}
	if body.Path != "/users" {
		t.Fatalf("path=%s", body.Path)
	}
}

func TestCreateInvalidPayloadReturns400WithDetails(t *testing.T) {
	router := newTestRouter(newMemRepo())

	w := doRequest(router, http.MethodPost, "/users", map[string]any{
		"username": "jo", // too short
		"email":    "not-an-email",
		"password": "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeErrorBody(t, w)
	if body.Code != "VALIDATION_ERROR" {
		t.Fatalf("code=%s", body.Code)
	}
	details, ok := body.Details.(map[string]any)
	if !ok {
		t.Fatalf("details missing: %v", body.Details)
	}
	for _, field := range []string{"email", "password", "firstName"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("missing detail for %s: %v", field, details)
		}
	}
}

func TestGetUnknownUserReturns404(t *testing.T) {
	router := newTestRouter(newMemRepo())

	w := doRequest(router, http.MethodGet, "/users/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeErrorBody(t, w)
	if body.Code != "USER_NOT_FOUND" {
		t.Fatalf("code=%s", body.Code)
	}
	if body.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestGetNonNumericIDReturns400(t *testing.T) {
	router := newTestRouter(newMemRepo())

	w := doRequest(router, http.MethodGet, "/users/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if body := decodeErrorBody(t, w); body.Code != "VALIDATION_ERROR" {
		t.Fatalf("code=%s", body.Code)
	}
}

func TestUpdateUnknownUserReturns404(t *testing.T) {
	router := newTestRouter(newMemRepo())

	w := doRequest(router, http.MethodPut, "/users/42", map[string]any{
		"username":  "john_doe",
		"email":     "john@example.com",
		"firstName": "John",
		"lastName":  "Doe",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateChangesFieldsAndKeepsCreatedAt(t *testing.T) {
	router := newTestRouter(newMemRepo())
	created := doRequest(router, http.MethodPost, "/users", validCreateBody())

	var u map[string]any
	_ = json.Unmarshal(created.Body.Bytes(), &u)

	w := doRequest(router, http.MethodPut, "/users/1", map[string]any{
		"username":  "john_doe",
		"email":     "john.new@example.com",
		"firstName": "Johnny",
		"lastName":  "Doe",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var updated map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated["email"] != "john.new@example.com" || updated["firstName"] != "Johnny" {
		t.Fatalf("fields not updated: %v", updated)
	}
	if updated["createdAt"] != u["createdAt"] {
		t.Fatalf("createdAt changed: %v -> %v", u["createdAt"], updated["createdAt"])
	}
}

func TestDeleteReturns204ThenGet404(t *testing.T) {
	router := newTestRouter(newMemRepo())
	doRequest(router, http.MethodPost, "/users", validCreateBody())

	w := doRequest(router, http.MethodDelete, "/users/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}

	w = doRequest(router, http.MethodGet, "/users/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}

	w = doRequest(router, http.MethodDelete, "/users/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", w.Code)
	}
}

func TestLookupByEmailAndUsername(t *testing.T) {
	router := newTestRouter(newMemRepo())
	doRequest(router, http.MethodPost, "/users", validCreateBody())

	w := doRequest(router, http.MethodGet, "/users/email/john@example.com", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by email status=%d", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/users/username/john_doe", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by username status=%d", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/users/email/none@example.com", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing email status=%d", w.Code)
	}
	if body := decodeErrorBody(t, w); body.Code != "USER_NOT_FOUND" {
		t.Fatalf("code=%s", body.Code)
	}
}

func TestExistsAndCountEndpoints(t *testing.T) {
	router := newTestRouter(newMemRepo())
	doRequest(router, http.MethodPost, "/users", validCreateBody())

	w := doRequest(router, http.MethodGet, "/users/exists/email/john@example.com", nil)
	if w.Code != http.StatusOK || w.Body.String() != "true" {
		t.Fatalf("exists email: %d %q", w.Code, w.Body.String())
	}
	w = doRequest(router, http.MethodGet, "/users/exists/username/nobody", nil)
	if w.Code != http.StatusOK || w.Body.String() != "false" {
		t.Fatalf("exists username: %d %q", w.Code, w.Body.String())
	}
	w = doRequest(router, http.MethodGet, "/users/count", nil)
	if w.Code != http.StatusOK || w.Body.String() != "1" {
		t.Fatalf("count: %d %q", w.Code, w.Body.String())
	}
}

func TestListUsersOmitsPasswords(t *testing.T) {
	router := newTestRouter(newMemRepo())
	doRequest(router, http.MethodPost, "/users", validCreateBody())

	w := doRequest(router, http.MethodGet, "/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len=%d", len(list))
	}
	if _, ok := list[0]["password"]; ok {
		t.Fatal("list response leaks password")
	}
}

func TestCreatedRangeValidatesBounds(t *testing.T) {
	router := newTestRouter(newMemRepo())

	w := doRequest(router, http.MethodGet, "/users/created?from=bogus&to=alsobogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}

	// UTC keeps the query free of '+' offsets that would decode as spaces.
	from := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	to := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	w = doRequest(router, http.MethodGet, "/users/created?from="+from+"&to="+to, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodGet, "/users/created?from="+to+"&to="+from, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status=%d", w.Code)
	}
	if body := decodeErrorBody(t, w); body.Code != "VALIDATION_ERROR" {
		t.Fatalf("code=%s", body.Code)
	}
}

func TestStorageFailureReturnsGeneric500(t *testing.T) {
	repo := newMemRepo()
	repo.failAll = true
	router := newTestRouter(repo)

	w := doRequest(router, http.MethodGet, "/users/count", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeErrorBody(t, w)
	if body.Code != "INTERNAL_ERROR" {
		t.Fatalf("code=%s", body.Code)
	}
	if body.Message != "An unexpected error occurred" {
		t.Fatalf("message leaks detail: %q", body.Message)
	}
}
