package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapp "github.com/14kear/council-voting/internal/app/http"
	"github.com/14kear/council-voting/internal/config"
	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/export"
	"github.com/14kear/council-voting/internal/handlers"
	"github.com/14kear/council-voting/internal/lib/logger"
	"github.com/14kear/council-voting/internal/middleware"
	"github.com/14kear/council-voting/internal/realtime"
	"github.com/14kear/council-voting/internal/repo/storage"
	"github.com/14kear/council-voting/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail     = "admin@ubaporanga.com.br"
	adminPass      = "Camara2025"
	councilorEmail = "usuario@ubaporanga.com.br"
	councilorPass  = "usertest"
)

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	store, err := storage.New(storage.DriverSQLite, storage.MemoryDSN, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())

	registry := prometheus.NewRegistry()
	hub := realtime.NewHub(log, realtime.Config{}, registry)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		_ = store.Close()
	})

	users := services.NewUsers(log, store)
	require.NoError(t, users.Seed(context.Background(),
		services.UserInput{Email: adminEmail, Name: "Administrador", Password: adminPass, Role: entity.RoleAdmin},
		services.UserInput{Email: councilorEmail, Name: "Usuário Teste", Password: councilorPass, Role: entity.RoleCouncilor},
	))

	voting := services.NewVoting(log, store, store, hub, export.NewRenderer("Câmara", time.UTC), registry)
	auth := services.NewAuth(log, store, "test-secret", time.Hour)

	app := httpapp.NewApp(log, logger.EnvLocal, config.HTTPConfig{Port: 0}, httpapp.Handlers{
		Voting:   handlers.NewVotingHandler(log, voting, time.UTC),
		Users:    handlers.NewUsersHandler(log, users),
		Auth:     handlers.NewAuthHandler(log, auth),
		Realtime: hub,
		Ping:     handlers.Ping(log, store),
	}, middleware.NewAuthMiddleware(log, auth).Middleware())

	return &api{t: t, engine: app.Engine()}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) login(email, password string) string {
	a.t.Helper()

	w := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.LoginResponse
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, w)["error"]
}

func TestVotingFlow(t *testing.T) {
	a := newAPI(t)
	admin := a.login(adminEmail, adminPass)
	councilor := a.login(councilorEmail, councilorPass)

	w := a.do(http.MethodPost, "/api/bills", admin, gin.H{
		"title":       "PL 07/2025",
		"description": "Dispõe sobre a iluminação pública",
		"votingStart": "2020-01-01T00:00",
		"votingEnd":   "2099-12-31T23:59",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bill := decode[handlers.BillView](t, w)
	assert.Equal(t, entity.BillStatusDraft, bill.Status)
	require.NotNil(t, bill.VotingStart)
	assert.Equal(t, "Administrador", bill.Author.Name)

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", councilor, gin.H{"option": "YES"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bill is not open for voting", errorOf(t, w))

	w = a.do(http.MethodPatch, "/api/bills/"+bill.ID+"/status", admin, gin.H{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", councilor, gin.H{"option": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid vote option", errorOf(t, w))

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", councilor, gin.H{"option": "YES"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	vote := decode[handlers.VoteView](t, w)
	assert.Equal(t, entity.VoteYes, vote.Option)
	require.NotNil(t, vote.User)
	assert.Equal(t, councilorEmail, vote.User.Email)

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", councilor, gin.H{"option": "NO"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already voted", errorOf(t, w))

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", admin, gin.H{"option": "NO"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/councilor/bills/missing/vote", councilor, gin.H{"option": "NO"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/councilor/bills", councilor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]handlers.CouncilorBillView](t, w)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].UserVote)
	assert.Equal(t, entity.VoteYes, mine[0].UserVote.Option)

	w = a.do(http.MethodGet, "/api/telao/bills", councilor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	telao := decode[[]handlers.TelaoBillView](t, w)
	require.Len(t, telao, 1)
	assert.EqualValues(t, 1, telao[0].Count.Votes)

	w = a.do(http.MethodGet, "/api/telao/bills/"+bill.ID+"/votes", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stats":{"YES":1,"NO":0,"ABSTENTION":0,"total":1`)

	w = a.do(http.MethodGet, "/api/public/bills", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[[]handlers.BillView](t, w)
	require.Len(t, public, 1)
	assert.Len(t, public[0].Votes, 1)
}

func TestExport(t *testing.T) {
	a := newAPI(t)
	admin := a.login(adminEmail, adminPass)
	councilor := a.login(councilorEmail, councilorPass)

	w := a.do(http.MethodPost, "/api/bills", admin, gin.H{
		"title": "PL 3/2025", "description": "Saúde", "status": "ACTIVE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bill := decode[handlers.BillView](t, w)

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", councilor, gin.H{"option": "ABSTENTION"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/export", admin, gin.H{"billId": bill.ID, "format": "csv"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="votacao-PL-3-2025.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Body.String(), `"Abstenção:","1","100%",""`)

	w = a.do(http.MethodPost, "/api/export", admin, gin.H{"billId": bill.ID, "format": "pdf"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")

	w = a.do(http.MethodPost, "/api/export", admin, gin.H{"billId": bill.ID, "format": "xlsx"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/export", admin, gin.H{"format": "csv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/export", admin, gin.H{"billId": "missing", "format": "csv"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/export", councilor, gin.H{"billId": bill.ID, "format": "csv"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBillAdministration(t *testing.T) {
	a := newAPI(t)
	admin := a.login(adminEmail, adminPass)
	councilor := a.login(councilorEmail, councilorPass)

	w := a.do(http.MethodPost, "/api/bills", councilor, gin.H{"title": "x", "description": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/bills", admin, gin.H{"title": "", "description": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/bills", admin, gin.H{"title": "x", "description": "y", "votingStart": "amanhã"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid votingStart", errorOf(t, w))

	w = a.do(http.MethodPost, "/api/bills", admin, gin.H{"title": "x", "description": "y"})
	require.Equal(t, http.StatusOK, w.Code)
	bill := decode[handlers.BillView](t, w)

	w = a.do(http.MethodPut, "/api/bills/"+bill.ID, admin, gin.H{
		"title": "x2", "description": "y2", "status": "CANCELLED", "votingStart": "2025-03-10T09:00:00-03:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[handlers.BillView](t, w)
	assert.Equal(t, "x2", updated.Title)
	assert.Equal(t, entity.BillStatusCancelled, updated.Status)
	require.NotNil(t, updated.VotingStart)
	assert.True(t, updated.VotingStart.Equal(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))

	w = a.do(http.MethodPut, "/api/bills/missing", admin, gin.H{"title": "a", "description": "b"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/bills", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handlers.BillView](t, w), 1)

	w = a.do(http.MethodDelete, "/api/bills/"+bill.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodDelete, "/api/bills/"+bill.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/public/bills/"+bill.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersAndAuth(t *testing.T) {
	a := newAPI(t)
	admin := a.login(adminEmail, adminPass)

	w := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": adminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/bills", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/auth/me", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[entity.Principal](t, w)
	assert.Equal(t, entity.RoleAdmin, me.Role)

	w = a.do(http.MethodPost, "/api/users", admin, gin.H{
		"email": "nova@ubaporanga.com.br", "name": "Nova", "password": "segredo1", "role": "COUNCILOR",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "passHash")
	created := decode[entity.User](t, w)

	token := a.login("nova@ubaporanga.com.br", "segredo1")
	w = a.do(http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPut, "/api/users/"+created.ID, admin, gin.H{
		"email": "nova@ubaporanga.com.br", "name": "Nova", "role": "ADMIN",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The promotion applies to the token already issued.
	w = a.do(http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entity.User](t, w), 3)

	w = a.do(http.MethodDelete, "/api/users/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPing(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestPublicBillsHideVoterEmail(t *testing.T) {
	a := newAPI(t)
	admin := a.login(adminEmail, adminPass)
	councilor := a.login(councilorEmail, councilorPass)

	w := a.do(http.MethodPost, "/api/bills", admin, gin.H{
		"title": "PL 11/2025", "description": "Transporte escolar", "status": "ACTIVE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bill := decode[handlers.BillView](t, w)

	w = a.do(http.MethodPost, "/api/councilor/bills/"+bill.ID+"/vote", councilor, gin.H{"option": "NO"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, path := range []string{"/api/public/bills", "/api/public/bills/" + bill.ID} {
		w = a.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.NotContains(t, w.Body.String(), `"email"`, path)
		assert.NotContains(t, w.Body.String(), councilorEmail, path)
		assert.Contains(t, w.Body.String(), `"name":"Usuário Teste"`, path)
	}

	w = a.do(http.MethodGet, "/api/bills", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"`+councilorEmail+`"`)

	w = a.do(http.MethodGet, "/api/telao/bills/"+bill.ID+"/votes", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"`+councilorEmail+`"`)
}

func TestBillListsAlwaysCarryVotes(t *testing.T) {
	a := newAPI(t)
	admin := a.login(adminEmail, adminPass)

	w := a.do(http.MethodPost, "/api/bills", admin, gin.H{
		"title": "PL 12/2025", "description": "Sem votos", "status": "ACTIVE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, path := range []string{"/api/bills", "/api/public/bills", "/api/telao/bills"} {
		w = a.do(http.MethodGet, path, admin, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"votes":[]`, path)
	}
}
