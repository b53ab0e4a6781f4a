package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func notAdmin(context.Context, uint) (bool, error) { return false, nil }

func newPostTestApp(repo *MockPostRepository, me *models.User) *fiber.App {
	s := &Server{postService: service.NewPostService(repo, nil, notAdmin)}
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/posts/:id", s.GetPost)
	app.Put("/posts/:id", asUser(me), s.UpdatePost)
	app.Delete("/posts/:id", asUser(me), s.DeletePost)
	app.Post("/posts", asUser(me), s.CreatePost)
	return app
}

func TestGetPost(t *testing.T) {
	repo := new(MockPostRepository)
	app := newPostTestApp(repo, nil)

	repo.On("GetByID", mock.Anything, uint(3)).
		Return(&models.Post{ID: 3, UserID: 1, Content: "hello #go"}, nil).Once()
	repo.On("GetByID", mock.Anything, uint(4)).
		Return(nil, models.NewNotFoundError("Post", uint(4))).Once()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts/3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var post models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))
	assert.Equal(t, "hello #go", post.Content)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/posts/4", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	repo.AssertExpectations(t)
}

func TestDeletePost(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		repo := new(MockPostRepository)
		app := newPostTestApp(repo, &models.User{ID: 1})
		repo.On("GetByID", mock.Anything, uint(3)).Return(&models.Post{ID: 3, UserID: 1}, nil).Once()
		repo.On("Delete", mock.Anything, uint(3)).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/3", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		repo.AssertExpectations(t)
	})

	t.Run("someone else", func(t *testing.T) {
		repo := new(MockPostRepository)
		app := newPostTestApp(repo, &models.User{ID: 2})
		repo.On("GetByID", mock.Anything, uint(3)).Return(&models.Post{ID: 3, UserID: 1}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/3", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestUpdatePost_ReplacesHashtags(t *testing.T) {
	repo := new(MockPostRepository)
	app := newPostTestApp(repo, &models.User{ID: 1})

	repo.On("GetByID", mock.Anything, uint(3)).Return(&models.Post{ID: 3, UserID: 1, Content: "old"}, nil).Once()
	repo.On("UpdateContent", mock.Anything, uint(3), "new #Tag", []string{"tag"}).Return(nil).Once()
	repo.On("GetByID", mock.Anything, uint(3)).Return(&models.Post{ID: 3, UserID: 1, Content: "new #Tag"}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/posts/3", strings.NewReader(`{"content":"new #Tag"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}

func TestCreatePost_TextOnly(t *testing.T) {
	repo := new(MockPostRepository)
	app := newPostTestApp(repo, &models.User{ID: 1})

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.UserID == 1 && p.Content == "sunset #beach" && p.ImageURL == ""
	}), []string{"beach"}).Return(nil).Once()
	repo.On("GetByID", mock.Anything, uint(0)).Return(&models.Post{UserID: 1, Content: "sunset #beach"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("content=sunset+%23beach"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	repo.AssertExpectations(t)
}
