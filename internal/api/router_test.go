package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/auth"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/database"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/repository"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/websocket"
	"gorm.io/gorm"
)

var routerDBSeq atomic.Int64

// RouterTestSuite drives the full HTTP stack against an in-memory database
type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cancel context.CancelFunc
	server http.Handler
	tokens map[string]string
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", routerDBSeq.Add(1))
	db, err := database.Connect(database.DriverSQLite, dsn, false)
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))
	s.db = db

	log := logger.NewWithWriter(io.Discard, "error")
	tokens, err := auth.NewTokenManager("router-test-secret-router-test-secret", time.Hour)
	s.Require().NoError(err)

	hub := websocket.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	s.cancel = cancel

	users := repository.NewUserRepository(db)
	authService := services.NewAuthService(users, tokens, log)

	s.server = NewRouter(&RouterConfig{
		DB:        db,
		Logger:    log,
		Messages:  services.NewMessageService(repository.NewMessageRepository(db), hub, log),
		Auth:      authService,
		Users:     services.NewUserService(users),
		Hub:       hub,
		WebSocket: websocket.NewHandler(hub, authService, websocket.NewSecureUpgrader(nil, nil), nil, log),
	})

	s.tokens = make(map[string]string)
	for _, name := range []string{"alice", "bob", "eve"} {
		rec := s.do(http.MethodPost, "/api/auth/register", "", fmt.Sprintf(`{"username":%q,"password":"correct horse"}`, name))
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			Data services.AuthResult `json:"data"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.tokens[name] = body.Data.AccessToken
	}
}

func (s *RouterTestSuite) TearDownTest() {
	s.cancel()
	s.Require().NoError(database.Close(s.db))
}

func (s *RouterTestSuite) do(method, path, caller, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[caller])
	}
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func (s *RouterTestSuite) decode(rec *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *RouterTestSuite) view(rec *httptest.ResponseRecorder) map[string]interface{} {
	var v map[string]interface{}
	s.Require().NoError(json.Unmarshal(s.decode(rec).Data, &v))
	return v
}

func (s *RouterTestSuite) send(from, body string) string {
	rec := s.do(http.MethodPost, "/api/messages", from, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return s.view(rec)["id"].(string)
}

func (s *RouterTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"websocket_clients":0`)

	rec = s.do(http.MethodGet, "/ready", "", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestRequiresToken() {
	rec := s.do(http.MethodGet, "/api/messages/inbox", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/inbox", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestMe() {
	rec := s.do(http.MethodGet, "/api/auth/me", "alice", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"username":"alice"`)
	s.NotContains(rec.Body.String(), "argon2")
}

func (s *RouterTestSuite) TestLogin() {
	rec := s.do(http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"correct horse"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"token_type":"bearer"`)

	rec = s.do(http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong horse"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestUserDirectory() {
	rec := s.do(http.MethodGet, "/api/users", "alice", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"username":"bob"`)
	s.NotContains(rec.Body.String(), `"username":"alice"`)
}

func (s *RouterTestSuite) TestGatedLetterLifecycle() {
	id := s.send("alice", `{"recipient":"bob","content":"meet me at noon","secret_code":"rosebud"}`)

	// Recipient sees the envelope only
	rec := s.do(http.MethodGet, "/api/messages/"+id, "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	v := s.view(rec)
	s.Equal(true, v["locked"])
	s.NotContains(v, "content")
	s.NotContains(v, "secret_code")

	// Wrong code
	rec = s.do(http.MethodPost, "/api/messages/"+id+"/unlock", "bob", `{"secret_code":"tulip"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("SECRET_MISMATCH", s.decode(rec).Code)

	// Outsider is told nothing exists
	rec = s.do(http.MethodPost, "/api/messages/"+id+"/unlock", "eve", `{"secret_code":"rosebud"}`)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/messages/unread-count", "bob", "")
	s.Contains(rec.Body.String(), `"unread":1`)

	// Right code
	rec = s.do(http.MethodPost, "/api/messages/"+id+"/unlock", "bob", `{"secret_code":"rosebud"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	v = s.view(rec)
	s.Equal("meet me at noon", v["content"])
	s.NotNil(v["read_at"])

	rec = s.do(http.MethodGet, "/api/messages/unread-count", "bob", "")
	s.Contains(rec.Body.String(), `"unread":0`)

	// Sender always sees everything
	rec = s.do(http.MethodGet, "/api/messages/"+id, "alice", "")
	v = s.view(rec)
	s.Equal("meet me at noon", v["content"])
	s.Equal("rosebud", v["secret_code"])
}

func (s *RouterTestSuite) TestUngatedLetterMarkedReadOnView() {
	id := s.send("alice", `{"recipient":"bob","content":"hello"}`)

	rec := s.do(http.MethodPost, "/api/messages/"+id+"/unlock", "bob", `{"secret_code":"x"}`)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("INVALID_STATE", s.decode(rec).Code)

	rec = s.do(http.MethodGet, "/api/messages/"+id, "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotNil(s.view(rec)["read_at"])
}

func (s *RouterTestSuite) TestFolders() {
	s.send("alice", `{"recipient":"bob","content":"one"}`)
	s.send("alice", `{"recipient":"bob","content":"two"}`)
	s.send("alice", `{"recipient":"","content":"unfinished","is_draft":true}`)

	var list struct {
		Data []map[string]interface{} `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}

	rec := s.do(http.MethodGet, "/api/messages/inbox?limit=1", "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(int64(2), list.Meta.Total)
	s.Len(list.Data, 1)

	rec = s.do(http.MethodGet, "/api/messages/sent", "alice", "")
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(int64(2), list.Meta.Total)

	rec = s.do(http.MethodGet, "/api/messages/drafts", "alice", "")
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(int64(1), list.Meta.Total)

	rec = s.do(http.MethodGet, "/api/messages/drafts", "bob", "")
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(int64(0), list.Meta.Total)
}

func (s *RouterTestSuite) TestDraftEditAndSend() {
	id := s.send("alice", `{"recipient":"","content":"draft","is_draft":true}`)

	rec := s.do(http.MethodGet, "/api/messages/"+id, "bob", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, "/api/messages/"+id, "alice", `{"recipient":"bob","content":"final"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("final", s.view(rec)["content"])

	rec = s.do(http.MethodPost, "/api/messages/"+id+"/send", "alice", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/messages/"+id+"/send", "alice", "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/api/messages/"+id, "bob", `{"recipient":"bob","content":"hijack"}`)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/messages/"+id, "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("final", s.view(rec)["content"])
}

func (s *RouterTestSuite) TestDeleteIsTerminal() {
	id := s.send("alice", `{"recipient":"bob","content":"bye"}`)

	rec := s.do(http.MethodDelete, "/api/messages/"+id, "eve", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/messages/"+id, "bob", "")
	s.Equal(http.StatusNoContent, rec.Code)

	for _, caller := range []string{"alice", "bob"} {
		rec = s.do(http.MethodGet, "/api/messages/"+id, caller, "")
		s.Equal(http.StatusNotFound, rec.Code)
	}
}

func (s *RouterTestSuite) TestCreateValidation() {
	rec := s.do(http.MethodPost, "/api/messages", "alice", `{"recipient":"bob","content":""}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("INVALID_INPUT", s.decode(rec).Code)
}
