package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProcessor struct {
	got []ArticleIndexTask
}

func (p *captureProcessor) Process(_ context.Context, task ArticleIndexTask) error {
	p.got = append(p.got, task)
	return nil
}

func TestInlineDispatcher(t *testing.T) {
	p := &captureProcessor{}
	var d Dispatcher = InlineDispatcher{Processor: p}

	require.NoError(t, d.Dispatch(context.Background(), ArticleIndexTask{Action: ActionUpsert, ArticleID: 1}))
	require.NoError(t, d.Dispatch(context.Background(), ArticleIndexTask{Action: ActionDelete, ArticleID: 1}))
	require.Len(t, p.got, 2)
	assert.Equal(t, ActionDelete, p.got[1].Action)

	assert.NoError(t, NoopDispatcher{}.Dispatch(context.Background(), ArticleIndexTask{}))
}
