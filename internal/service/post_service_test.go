package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreateSanitizesAndTags(t *testing.T) {
	repo := noopPostRepo()
	var savedTags []string
	var saved *models.Post
	repo.createFn = func(_ context.Context, p *models.Post, tags []string) error {
		p.ID = 7
		saved = p
		savedTags = tags
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return saved, nil
	}
	svc := NewPostService(repo, nil, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:  1,
		Content: `<script>alert(1)</script>Sunset at the beach #Travel #sunset #travel`,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), post.ID)
	assert.NotContains(t, post.Content, "<script>")
	assert.Equal(t, []string{"travel", "sunset"}, savedTags)
}

func TestPostService_CreateWithImage(t *testing.T) {
	store := newMemoryStore()
	images := NewImageService(store, 5*1024*1024)
	repo := noopPostRepo()
	var saved *models.Post
	repo.createFn = func(_ context.Context, p *models.Post, _ []string) error {
		saved = p
		return nil
	}
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return saved, nil }
	svc := NewPostService(repo, images, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:  1,
		Content: "hello",
		Image:   &UploadImageInput{Filename: "a.png", ContentType: "image/png", Content: tinyPNG(t, 4, 4)},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(post.ImageURL, "http://cdn.test/posts/"))
	assert.True(t, strings.HasSuffix(post.ImageKey, ".webp"))
	assert.Len(t, store.objects, 1)
}

func TestPostService_CreateRemovesImageWhenInsertFails(t *testing.T) {
	store := newMemoryStore()
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post, _ []string) error {
		return models.NewInternalError(errors.New("db down"))
	}
	svc := NewPostService(repo, NewImageService(store, 0), nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1,
		Image:  &UploadImageInput{ContentType: "image/png", Content: tinyPNG(t, 4, 4)},
	})
	assertAppErrorCode(t, err, models.CodeInternal)
	assert.Empty(t, store.objects)
	assert.Len(t, store.deleted, 1)
}

func TestPostService_CreateRejectsNonImage(t *testing.T) {
	svc := NewPostService(noopPostRepo(), NewImageService(newMemoryStore(), 0), nil)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1,
		Image:  &UploadImageInput{ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
	})
	assertAppErrorCode(t, err, models.CodeUnsupportedMedia)
}

func TestPostService_ContentTooLong(t *testing.T) {
	svc := NewPostService(noopPostRepo(), nil, nil)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Content: strings.Repeat("x", maxPostContentLen+1)})
	assertValidationError(t, err)
}

func TestPostService_UpdateAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		actorID uint
		isAdmin AdminChecker
		wantErr string
	}{
		{"owner", 1, nil, ""},
		{"admin", 2, adminIf(2), ""},
		{"stranger", 3, adminIf(2), models.CodeForbidden},
		{"stranger without checker", 3, nil, models.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopPostRepo()
			repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 1}, nil
			}
			var updated string
			var tags []string
			repo.updateContentFn = func(_ context.Context, _ uint, content string, extracted []string) error {
				updated = content
				tags = extracted
				return nil
			}
			svc := NewPostService(repo, nil, tt.isAdmin)

			_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: tt.actorID, PostID: 5, Content: "new #Tag"})
			if tt.wantErr != "" {
				assertAppErrorCode(t, err, tt.wantErr)
				assert.Empty(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "new #Tag", updated)
			assert.Equal(t, []string{"tag"}, tags)
		})
	}
}

func TestPostService_DeleteRemovesImage(t *testing.T) {
	store := newMemoryStore()
	store.objects["posts/2026/01/a.webp"] = []byte("x")
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, ImageKey: "posts/2026/01/a.webp"}, nil
	}
	deleted := false
	repo.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	svc := NewPostService(repo, NewImageService(store, 0), nil)

	err := svc.DeletePost(context.Background(), DeletePostInput{UserID: 2, PostID: 9})
	assertAppErrorCode(t, err, models.CodeForbidden)
	assert.False(t, deleted)

	require.NoError(t, svc.DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: 9}))
	assert.True(t, deleted)
	assert.Equal(t, []string{"posts/2026/01/a.webp"}, store.deleted)
}

func TestPostService_GetMissing(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	svc := NewPostService(repo, nil, nil)
	_, err := svc.GetPost(context.Background(), 404)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
