package status

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceLifecycle(t *testing.T) {
	svc := NewService()

	initial := svc.Snapshot()
	assert.Equal(t, "Idle", initial.Message)
	assert.Zero(t, initial.CycleCount)
	assert.Nil(t, initial.LastUpdate)

	svc.SetMessage("Fetching sources", 10)
	st := svc.Snapshot()
	assert.Equal(t, "Fetching sources", st.Message)
	assert.Equal(t, 10, st.Progress)
	require.NotNil(t, st.LastUpdate)

	svc.SetError(errors.New("source unreachable"))
	st = svc.Snapshot()
	assert.Equal(t, "source unreachable", st.LastError)
	assert.Equal(t, "Fetching sources", st.Message, "error keeps the stage message")

	svc.MarkCycleComplete(7, 25)
	st = svc.Snapshot()
	assert.Equal(t, 1, st.CycleCount)
	assert.Equal(t, 7, st.ArticlesSaved)
	assert.Equal(t, 25, st.ArticlesTotal)
	assert.Equal(t, "Idle", st.Message)
	assert.Empty(t, st.LastError, "successful cycle clears the error")
}

func TestServiceProgressClamped(t *testing.T) {
	svc := NewService()

	svc.SetMessage("over", 150)
	assert.Equal(t, 100, svc.Snapshot().Progress)

	svc.SetMessage("under", -5)
	assert.Equal(t, 0, svc.Snapshot().Progress)
}

func TestServiceConcurrentAccess(t *testing.T) {
	svc := NewService()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			svc.SetMessage("working", n*10)
		}(i)
		go func() {
			defer wg.Done()
			_ = svc.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, "working", svc.Snapshot().Message)
}
