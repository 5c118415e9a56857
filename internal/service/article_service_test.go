package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inkdesk/internal/apperr"
	"inkdesk/internal/model"
	"inkdesk/internal/repository"
	"inkdesk/pkg/tasks"
)

func TestArticleServiceCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@x.com")
	other := createUser(t, db, "other@x.com")
	dispatcher := &recordingDispatcher{}
	svc := NewArticleService(repository.NewArticleRepository(db), dispatcher)

	created, err := svc.Create(ctx, owner.ID, model.ArticleInput{Title: "T", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.UserID)
	assert.Nil(t, created.Summary)

	got, err := svc.Get(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)

	updated, err := svc.Update(ctx, created.ID, owner.ID, model.ArticleInput{Title: "T2", Content: "new", Summary: strPtr("s")})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "s", *updated.Summary)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	list, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	deleted, err := svc.Delete(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Get(ctx, created.ID, owner.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.Len(t, dispatcher.tasks, 3)
	assert.Equal(t, tasks.ActionUpsert, dispatcher.tasks[0].Action)
	assert.Equal(t, tasks.ActionUpsert, dispatcher.tasks[1].Action)
	assert.Equal(t, "T2", dispatcher.tasks[1].Title)
	assert.Equal(t, tasks.ActionDelete, dispatcher.tasks[2].Action)
	assert.Equal(t, created.ID, dispatcher.tasks[2].ArticleID)
}

func TestArticleServiceForeignAccessIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@x.com")
	other := createUser(t, db, "other@x.com")
	dispatcher := &recordingDispatcher{}
	svc := NewArticleService(repository.NewArticleRepository(db), dispatcher)

	a, err := svc.Create(ctx, owner.ID, model.ArticleInput{Title: "mine", Content: "x"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, a.ID, other.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.Update(ctx, a.ID, other.ID, model.ArticleInput{Title: "hijack"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.Delete(ctx, a.ID, other.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// 文章未被修改
	got, err := svc.Get(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
	assert.Len(t, dispatcher.tasks, 1)
}

func TestArticleServiceDispatchFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@x.com")
	svc := NewArticleService(repository.NewArticleRepository(db), &recordingDispatcher{err: errors.New("broker down")})

	a, err := svc.Create(ctx, owner.ID, model.ArticleInput{Title: "T", Content: "x"})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
}

func TestArticleServiceNilDispatcher(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@x.com")
	svc := NewArticleService(repository.NewArticleRepository(db), nil)

	_, err := svc.Create(ctx, owner.ID, model.ArticleInput{Title: "T", Content: "x"})
	require.NoError(t, err)
}
