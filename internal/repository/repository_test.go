package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"inkdesk/internal/model"
	"inkdesk/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	user := createUser(t, db, "a@x.com")

	live := &model.Session{Token: "live", UserID: user.ID, ExpiresAt: time.Now().UTC().Add(time.Hour)}
	stale := &model.Session{Token: "stale", UserID: user.ID, ExpiresAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	t.Run("find preloads user", func(t *testing.T) {
		found, err := repo.FindByToken(ctx, "live")
		require.NoError(t, err)
		require.Equal(t, user.ID, found.UserID)
		require.Equal(t, "a@x.com", found.User.Email)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.FindByToken(ctx, "nope")
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("delete expired keeps live sessions", func(t *testing.T) {
		n, err := repo.DeleteExpired(ctx, time.Now().UTC())
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		_, err = repo.FindByToken(ctx, "live")
		require.NoError(t, err)
	})

	t.Run("delete by token reports whether a row existed", func(t *testing.T) {
		deleted, err := repo.DeleteByToken(ctx, "live")
		require.NoError(t, err)
		require.True(t, deleted)
		deleted, err = repo.DeleteByToken(ctx, "live")
		require.NoError(t, err)
		require.False(t, deleted)
	})
}

func TestArticleRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	owner := createUser(t, db, "owner@x.com")
	other := createUser(t, db, "other@x.com")

	article := &model.Article{Title: "T", Content: "C", UserID: owner.ID}
	require.NoError(t, repo.Create(ctx, article))

	_, err := repo.FindOwned(ctx, article.ID, other.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.UpdateOwned(ctx, article.ID, other.ID, model.ArticleInput{Title: "hijack"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.DeleteOwned(ctx, article.ID, other.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindOwned(ctx, article.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "T", found.Title)

	list, err := repo.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestArticleRepositoryUpdateAdvancesTimestamp(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewArticleRepository(db).(*articleRepository)
	owner := createUser(t, db, "owner@x.com")

	article := &model.Article{Title: "T", Content: "C", UserID: owner.ID}
	require.NoError(t, repo.Create(ctx, article))

	// 固定时钟，模拟同一毫秒内的连续更新
	frozen := article.UpdatedAt
	repo.now = func() time.Time { return frozen }

	prev := article.UpdatedAt
	for i := 0; i < 3; i++ {
		updated, err := repo.UpdateOwned(ctx, article.ID, owner.ID, model.ArticleInput{
			Title:   "T2",
			Content: "C2",
			Summary: strPtr("S"),
		})
		require.NoError(t, err)
		require.True(t, updated.UpdatedAt.After(prev), "updated_at must strictly advance")
		require.Equal(t, "T2", updated.Title)
		require.Equal(t, "S", *updated.Summary)
		prev = updated.UpdatedAt
	}
}

func TestArticleRepositoryListOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewArticleRepository(db).(*articleRepository)
	owner := createUser(t, db, "owner@x.com")

	first := &model.Article{Title: "first", Content: "", UserID: owner.ID}
	second := &model.Article{Title: "second", Content: "", UserID: owner.ID}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	later := second.UpdatedAt.Add(time.Second)
	repo.now = func() time.Time { return later }
	_, err := repo.UpdateOwned(ctx, first.ID, owner.ID, model.ArticleInput{Title: "first again"})
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)
}

func TestArticleRepositoryDeleteCascadesMessages(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	articles := NewArticleRepository(db)
	messages := NewMessageRepository(db)
	owner := createUser(t, db, "owner@x.com")

	article := &model.Article{Title: "T", Content: "C", UserID: owner.ID}
	require.NoError(t, articles.Create(ctx, article))
	require.NoError(t, messages.Create(ctx, &model.Message{Content: "Hi", Role: model.RoleUser, ArticleID: article.ID}))

	deleted, err := articles.DeleteOwned(ctx, article.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, article.ID, deleted.ID)
	require.Equal(t, "T", deleted.Title)

	remaining, err := messages.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	_, err = articles.DeleteOwned(ctx, article.ID, owner.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMessageRepositoryOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	articles := NewArticleRepository(db)
	messages := NewMessageRepository(db)
	owner := createUser(t, db, "owner@x.com")

	article := &model.Article{Title: "T", Content: "C", UserID: owner.ID}
	require.NoError(t, articles.Create(ctx, article))

	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, messages.Create(ctx, &model.Message{Content: content, Role: model.RoleUser, ArticleID: article.ID}))
	}

	list, err := messages.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		require.False(t, list[i].CreatedAt.Before(list[i-1].CreatedAt))
	}
	require.Equal(t, "one", list[0].Content)
	require.Equal(t, "four", list[3].Content)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := createUser(t, db, "a@x.com")
	require.NotZero(t, user.ID)

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "b@x.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 唯一索引兜底
	require.Error(t, repo.Create(ctx, &model.User{Email: "a@x.com", PasswordHash: "y"}))
}
