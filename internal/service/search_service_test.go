package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"inkdesk/internal/apperr"
	"inkdesk/pkg/es"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, query string, userID uint, size int) ([]es.SearchHit, error) {
	args := m.Called(ctx, query, userID, size)
	hits, _ := args.Get(0).([]es.SearchHit)
	return hits, args.Error(1)
}

func TestSearchService(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("maps hits", func(t *testing.T) {
		s := &mockSearcher{}
		s.On("Search", mock.Anything, "golang", uint(7), 10).Return([]es.SearchHit{
			{Document: es.ArticleDocument{ArticleID: 3, UserID: 7, Title: "Go", Summary: "intro", UpdatedAt: updated}, Score: 1.5, Highlight: []string{"<em>golang</em>"}},
			{Document: es.ArticleDocument{ArticleID: 4, UserID: 7, Title: "No summary"}, Score: 0.5},
		}, nil).Once()

		hits, err := NewSearchService(s).Search(ctx, 7, "  golang ", 0)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, uint(3), hits[0].ID)
		assert.Equal(t, "intro", *hits[0].Summary)
		assert.Equal(t, updated, hits[0].UpdatedAt)
		assert.Equal(t, []string{"<em>golang</em>"}, hits[0].Highlight)
		assert.Nil(t, hits[1].Summary)
		s.AssertExpectations(t)
	})

	t.Run("caps size", func(t *testing.T) {
		s := &mockSearcher{}
		s.On("Search", mock.Anything, "q", uint(1), 50).Return([]es.SearchHit{}, nil).Once()
		hits, err := NewSearchService(s).Search(ctx, 1, "q", 500)
		require.NoError(t, err)
		assert.Empty(t, hits)
		s.AssertExpectations(t)
	})

	t.Run("empty query", func(t *testing.T) {
		s := &mockSearcher{}
		_, err := NewSearchService(s).Search(ctx, 1, "  ", 5)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		s.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("backend failure", func(t *testing.T) {
		s := &mockSearcher{}
		s.On("Search", mock.Anything, "q", uint(1), 5).Return(nil, errors.New("es down")).Once()
		_, err := NewSearchService(s).Search(ctx, 1, "q", 5)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}
