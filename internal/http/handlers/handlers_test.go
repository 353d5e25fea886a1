package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ---------- test wiring ----------

func mount(r *gin.Engine, h *Handlers) {
	r.GET("/health", h.Health)
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	r.POST("/users/:id/friends/:friendId", h.AddFriend)
	r.DELETE("/users/:id/friends/:friendId", h.RemoveFriend)
	r.GET("/thoughts", h.ListThoughts)
	r.POST("/thoughts", h.CreateThought)
	r.GET("/thoughts/:id", h.GetThought)
	r.PUT("/thoughts/:id", h.UpdateThought)
	r.DELETE("/thoughts/:id", h.DeleteThought)
	r.POST("/thoughts/:id/reactions", h.AddReaction)
	r.DELETE("/thoughts/:id/reactions/:reactionId", h.RemoveReaction)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := repo.NewSQLStore(db)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	rel := services.NewRelations(st)
	r := gin.New()
	mount(r, New(services.NewUserService(st, rel), services.NewThoughtService(st, rel), st))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type userBody struct {
	ID          string           `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	ThoughtIDs  []string         `json:"thoughtIds"`
	FriendIDs   []string         `json:"friendIds"`
	FriendCount int              `json:"friendCount"`
	Thoughts    []map[string]any `json:"thoughts"`
	Friends     []map[string]any `json:"friends"`
}

type reactionBody struct {
	ReactionID   string `json:"reactionId"`
	ReactionBody string `json:"reactionBody"`
	Username     string `json:"username"`
}

type thoughtBody struct {
	ID            string         `json:"id"`
	ThoughtText   string         `json:"thoughtText"`
	Username      string         `json:"username"`
	CreatedAt     string         `json:"createdAt"`
	Reactions     []reactionBody `json:"reactions"`
	ReactionCount int            `json:"reactionCount"`
}

func createUser(t *testing.T, r http.Handler, name string) userBody {
	t.Helper()
	w := do(t, r, http.MethodPost, "/users", map[string]string{"username": name, "email": name + "@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: %d %s", w.Code, w.Body.String())
	}
	return decode[userBody](t, w)
}

// ---------- users ----------

func TestUsers_CRUD(t *testing.T) {
	r := newTestRouter(t)

	u := createUser(t, r, "lernantino")
	if !domain.IsID(u.ID) || u.FriendCount != 0 || u.ThoughtIDs == nil || u.FriendIDs == nil {
		t.Fatalf("unexpected created user: %+v", u)
	}

	w := do(t, r, http.MethodGet, "/users", nil)
	list := decode[[]userBody](t, w)
	if w.Code != http.StatusOK || len(list) != 1 || list[0].Thoughts == nil || list[0].Friends == nil {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/users/"+u.ID, nil)
	if w.Code != http.StatusOK || decode[userBody](t, w).Username != "lernantino" {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPut, "/users/"+u.ID, map[string]string{"email": "new@example.com"})
	if got := decode[userBody](t, w); w.Code != http.StatusOK || got.Email != "new@example.com" || got.Username != "lernantino" {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodDelete, "/users/"+u.ID, nil)
	if w.Code != http.StatusOK || decode[userBody](t, w).ID != u.ID {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users/" + u.ID},
		{http.MethodDelete, "/users/" + u.ID},
		{http.MethodGet, "/users/not-an-id"},
	} {
		w = do(t, r, tc.method, tc.path, nil)
		er := decode[ErrorResponse](t, w)
		if w.Code != http.StatusNotFound || er.Message != msgNoUser {
			t.Fatalf("%s %s: %d %+v", tc.method, tc.path, w.Code, er)
		}
	}
}

func TestUsers_ValidationAndDuplicates(t *testing.T) {
	r := newTestRouter(t)
	createUser(t, r, "ann")

	w := do(t, r, http.MethodPost, "/users", map[string]string{"username": "ann", "email": "other@example.com"})
	er := decode[ErrorResponse](t, w)
	if w.Code != http.StatusBadRequest || er.Code != ErrCodeValidation || len(er.Details) != 1 ||
		er.Details[0].Field != "username" || er.Details[0].Rule != "unique" {
		t.Fatalf("duplicate: %d %+v", w.Code, er)
	}

	w = do(t, r, http.MethodPost, "/users", map[string]string{"username": "  "})
	er = decode[ErrorResponse](t, w)
	if w.Code != http.StatusBadRequest || len(er.Details) != 2 {
		t.Fatalf("missing fields: %d %+v", w.Code, er)
	}

	w = do(t, r, http.MethodPost, "/users", `{"username":`)
	if er = decode[ErrorResponse](t, w); w.Code != http.StatusBadRequest || er.Code != ErrCodeBadRequest {
		t.Fatalf("malformed json: %d %+v", w.Code, er)
	}

	w = do(t, r, http.MethodPut, "/users/"+domain.NewID(), map[string]string{"username": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing: %d", w.Code)
	}
}

func TestUsers_Friends(t *testing.T) {
	r := newTestRouter(t)
	a := createUser(t, r, "ann")
	b := createUser(t, r, "ben")

	path := "/users/" + a.ID + "/friends/" + b.ID
	for i := 0; i < 2; i++ {
		w := do(t, r, http.MethodPost, path, nil)
		got := decode[userBody](t, w)
		if w.Code != http.StatusOK || got.FriendCount != 1 || len(got.Friends) != 1 || got.Friends[0]["username"] != "ben" {
			t.Fatalf("add friend #%d: %d %s", i, w.Code, w.Body.String())
		}
	}

	w := do(t, r, http.MethodPost, "/users/"+a.ID+"/friends/"+a.ID, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self friend: %d", w.Code)
	}
	w = do(t, r, http.MethodPost, "/users/"+a.ID+"/friends/"+domain.NewID(), nil)
	if er := decode[ErrorResponse](t, w); w.Code != http.StatusNotFound || er.Message != msgNoFriend {
		t.Fatalf("missing friend: %d %+v", w.Code, er)
	}

	for i := 0; i < 2; i++ {
		w = do(t, r, http.MethodDelete, path, nil)
		if got := decode[userBody](t, w); w.Code != http.StatusOK || got.FriendCount != 0 {
			t.Fatalf("remove friend #%d: %d %s", i, w.Code, w.Body.String())
		}
	}
}

// ---------- thoughts & reactions ----------

func TestThoughts_LifecycleAndReactions(t *testing.T) {
	r := newTestRouter(t)
	u := createUser(t, r, "ann")

	w := do(t, r, http.MethodPost, "/thoughts", map[string]string{
		"thoughtText": "Here's a cool thought...", "username": "ann", "userId": u.ID,
	})
	th := decode[thoughtBody](t, w)
	if w.Code != http.StatusCreated || w.Header().Get(HeaderPartialFailure) != "" || th.ReactionCount != 0 || th.Reactions == nil {
		t.Fatalf("create thought: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/users/"+u.ID, nil)
	if got := decode[userBody](t, w); len(got.ThoughtIDs) != 1 || got.ThoughtIDs[0] != th.ID || len(got.Thoughts) != 1 {
		t.Fatalf("author not linked: %s", w.Body.String())
	}

	w = do(t, r, http.MethodPut, "/thoughts/"+th.ID, map[string]string{"thoughtText": "edited"})
	if got := decode[thoughtBody](t, w); w.Code != http.StatusOK || got.ThoughtText != "edited" {
		t.Fatalf("update thought: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/thoughts/"+th.ID+"/reactions", map[string]string{"reactionBody": "nice", "username": "ben"})
	got := decode[thoughtBody](t, w)
	if w.Code != http.StatusOK || got.ReactionCount != 1 || !domain.IsID(got.Reactions[0].ReactionID) {
		t.Fatalf("add reaction: %d %s", w.Code, w.Body.String())
	}
	rid := got.Reactions[0].ReactionID

	w = do(t, r, http.MethodDelete, "/thoughts/"+th.ID+"/reactions/"+rid, nil)
	if got = decode[thoughtBody](t, w); w.Code != http.StatusOK || got.ReactionCount != 0 {
		t.Fatalf("remove reaction: %d %s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodDelete, "/thoughts/"+th.ID+"/reactions/"+rid, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove absent reaction: %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/thoughts", nil)
	if list := decode[[]thoughtBody](t, w); w.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list thoughts: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodDelete, "/thoughts/"+th.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete thought: %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/thoughts/"+th.ID, nil)
	if er := decode[ErrorResponse](t, w); w.Code != http.StatusNotFound || er.Message != msgNoThought {
		t.Fatalf("get deleted: %d %+v", w.Code, er)
	}
}

func TestThoughts_Validation(t *testing.T) {
	r := newTestRouter(t)
	u := createUser(t, r, "ann")

	long := string(bytes.Repeat([]byte("a"), domain.MaxThoughtText+1))
	w := do(t, r, http.MethodPost, "/thoughts", map[string]string{"thoughtText": long, "username": "ann", "userId": u.ID})
	er := decode[ErrorResponse](t, w)
	if w.Code != http.StatusBadRequest || er.Details[0].Field != "thoughtText" || er.Details[0].Rule != "max" {
		t.Fatalf("too long: %d %+v", w.Code, er)
	}

	w = do(t, r, http.MethodPost, "/thoughts", map[string]string{"thoughtText": "ok", "username": "ann", "userId": "123"})
	if er = decode[ErrorResponse](t, w); w.Code != http.StatusBadRequest || er.Details[0].Field != "userId" {
		t.Fatalf("bad userId: %d %+v", w.Code, er)
	}

	w = do(t, r, http.MethodPost, "/thoughts/"+domain.NewID()+"/reactions", map[string]string{"reactionBody": "x", "username": "y"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("reaction on missing thought: %d", w.Code)
	}
}

func TestThoughts_MissingAuthorIsPartialFailure(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/thoughts", map[string]string{
		"thoughtText": "orphan", "username": "ghost", "userId": domain.NewID(),
	})
	if w.Code != http.StatusCreated || w.Header().Get(HeaderPartialFailure) != services.StepLinkUser {
		t.Fatalf("expected 201 + partial failure header, got %d %v", w.Code, w.Header())
	}
	th := decode[thoughtBody](t, w)
	w = do(t, r, http.MethodGet, "/thoughts/"+th.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("thought should persist: %d", w.Code)
	}
}

// ---------- health ----------

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		err  error
		code int
	}{{nil, http.StatusOK}, {errors.New("down"), http.StatusServiceUnavailable}} {
		r := gin.New()
		r.GET("/health", New(nil, nil, pingStub{tc.err}).Health)
		w := do(t, r, http.MethodGet, "/health", nil)
		if w.Code != tc.code {
			t.Fatalf("health with err=%v: %d", tc.err, w.Code)
		}
	}
}
