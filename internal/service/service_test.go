package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"inkdesk/internal/model"
	"inkdesk/internal/repository"
	"inkdesk/pkg/database"
	"inkdesk/pkg/llm"
	"inkdesk/pkg/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Chat(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	args := m.Called(ctx, messages, gen)
	return args.String(0), args.Error(1)
}

type recordingDispatcher struct {
	tasks []tasks.ArticleIndexTask
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, task tasks.ArticleIndexTask) error {
	d.tasks = append(d.tasks, task)
	return d.err
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }
