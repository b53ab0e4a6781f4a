package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goodabcdef/instagram-project/internal/config"
	"github.com/goodabcdef/instagram-project/internal/database"
	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:           "test",
		JWTSecret:     "test-secret-with-at-least-32-characters",
		JWTIssuer:     "instagram-api",
		JWTAudience:   "instagram-client",
		BcryptCost:    4,
		UploadDir:     t.TempDir(),
		PublicBaseURL: "http://localhost:8000",
	}
	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{server: s, app: s.App(), db: db, mr: mr}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) jsonRequest(method, path, token string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (e *testEnv) signup(t *testing.T, email, password, nickname string) *models.User {
	t.Helper()
	resp := e.do(t, e.jsonRequest(http.MethodPost, "/signup", "", map[string]string{
		"email": email, "password": password, "nickname": nickname,
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var u models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	return &u
}

func (e *testEnv) loginRequest(email, password string) *http.Request {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, e.loginRequest(email, password))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pair struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	require.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "bearer", pair.TokenType)
	return pair.AccessToken
}

func (e *testEnv) createPost(t *testing.T, token, content string) *models.Post {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/posts",
		strings.NewReader(url.Values{"content": {content}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := e.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return &p
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAPI_SignupLoginAndProfile(t *testing.T) {
	env := newTestEnv(t)

	user := env.signup(t, "A@X.com", "pw", "A")
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, models.ProviderLocal, user.Provider)

	token := env.login(t, "a@x.com", "pw")

	resp := env.do(t, env.jsonRequest(http.MethodGet, "/users/me", token, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, user.ID, me.ID)

	t.Run("duplicate email", func(t *testing.T) {
		resp := env.do(t, env.jsonRequest(http.MethodPost, "/signup", "", map[string]string{
			"email": "a@x.com", "password": "other", "nickname": "B",
		}))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, models.CodeConflict, decodeError(t, resp).Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := env.do(t, env.loginRequest("a@x.com", "nope"))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		resp := env.do(t, env.loginRequest("ghost@x.com", "pw"))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Incorrect email or password", decodeError(t, resp).Error)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := env.do(t, env.jsonRequest(http.MethodGet, "/users/me", "", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := env.do(t, env.jsonRequest(http.MethodGet, "/users/me", "not-a-jwt", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("disabled social provider", func(t *testing.T) {
		resp := env.do(t, env.jsonRequest(http.MethodGet, "/auth/kakao", "", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_FollowGraph(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice@x.com", "pw", "alice")
	bob := env.signup(t, "bob@x.com", "pw", "bob")
	aliceToken := env.login(t, "alice@x.com", "pw")

	followPath := fmt.Sprintf("/follows/%d", bob.ID)

	resp := env.do(t, env.jsonRequest(http.MethodPost, followPath, aliceToken, nil))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodPost, followPath, aliceToken, nil))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodPost, fmt.Sprintf("/follows/%d", alice.ID), aliceToken, nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodPost, "/follows/9999", aliceToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodGet, fmt.Sprintf("/users/%d/follows/stats", bob.ID), "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats models.FollowStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Followers)
	assert.Equal(t, int64(0), stats.Followings)

	resp = env.do(t, env.jsonRequest(http.MethodGet, "/follows/followings", aliceToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var followings []models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&followings))
	require.Len(t, followings, 1)
	assert.Equal(t, bob.ID, followings[0].ID)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, followPath, aliceToken, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, followPath, aliceToken, nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PostsCommentsAndReactions(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice@x.com", "pw", "alice")
	env.signup(t, "bob@x.com", "pw", "bob")
	aliceToken := env.login(t, "alice@x.com", "pw")
	bobToken := env.login(t, "bob@x.com", "pw")

	post := env.createPost(t, aliceToken, "sunset at the #Beach")

	resp := env.do(t, env.jsonRequest(http.MethodGet, "/search/hashtags/beach", "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tagged []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tagged))
	require.Len(t, tagged, 1)
	assert.Equal(t, post.ID, tagged[0].ID)

	resp = env.do(t, env.jsonRequest(http.MethodPost, "/comments", bobToken, map[string]any{
		"post_id": post.ID, "content": "nice",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&comment))

	resp = env.do(t, env.jsonRequest(http.MethodGet, fmt.Sprintf("/comments?post_id=%d", post.ID), "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []models.Comment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Content)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/comments/%d", comment.ID), aliceToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodPost, "/likes", bobToken, map[string]any{"post_id": post.ID}))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.do(t, env.jsonRequest(http.MethodPost, "/likes", bobToken, map[string]any{"post_id": post.ID}))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodGet, "/likes/me", bobToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var liked []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&liked))
	require.Len(t, liked, 1)
	assert.Equal(t, post.ID, liked[0].ID)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/likes/%d", post.ID), bobToken, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/likes/%d", post.ID), bobToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), bobToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), aliceToken, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodGet, fmt.Sprintf("/comments?post_id=%d", post.ID), "", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t, "admin@x.com", "pw", "admin")
	victim := env.signup(t, "victim@x.com", "pw", "victim")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)

	adminToken := env.login(t, "admin@x.com", "pw")
	victimToken := env.login(t, "victim@x.com", "pw")

	resp := env.do(t, env.jsonRequest(http.MethodGet, "/admin/users", victimToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodGet, "/admin/users", adminToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	assert.Len(t, users, 2)

	resp = env.do(t, env.jsonRequest(http.MethodPut, fmt.Sprintf("/admin/users/%d/admin", victim.ID), adminToken, map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/admin/users/%d", admin.ID), adminToken, nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodDelete, fmt.Sprintf("/admin/users/%d", victim.ID), adminToken, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, env.jsonRequest(http.MethodGet, "/users/me", victimToken, nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_AdminDemotionTakesEffectImmediately(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t, "admin@x.com", "pw", "admin")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)
	token := env.login(t, "admin@x.com", "pw")

	resp := env.do(t, env.jsonRequest(http.MethodGet, fmt.Sprintf("/users/%d", admin.ID), "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, env.jsonRequest(http.MethodGet, "/admin/users", token, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Written behind the repository, so any cached profile still says admin.
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", false).Error)

	resp = env.do(t, env.jsonRequest(http.MethodGet, "/admin/users", token, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, env.jsonRequest(http.MethodGet, "/nope", "", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decodeError(t, resp).Code)
}
