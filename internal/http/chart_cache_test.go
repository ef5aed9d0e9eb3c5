package http

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestChartCache_HitAfterMiss(t *testing.T) {
	cc := newChartCache(4, time.Minute)
	var renders atomic.Int32
	render := func(_ context.Context, buf *bytes.Buffer) error {
		renders.Add(1)
		buf.WriteString("png")
		return nil
	}

	got, hit, err := cc.get(context.Background(), "k", render)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "png", string(got))

	got, hit, err = cc.get(context.Background(), "k", render)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "png", string(got))
	assert.Equal(t, int32(1), renders.Load())
}

func TestChartCache_ErrorsAreNotCached(t *testing.T) {
	cc := newChartCache(4, time.Minute)
	boom := errors.New("encode failed")

	_, _, err := cc.get(context.Background(), "k", func(context.Context, *bytes.Buffer) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cc.lru.Size())

	_, hit, err := cc.get(context.Background(), "k", func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString("ok")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestChartCache_ConcurrentMissesShareRender(t *testing.T) {
	cc := newChartCache(4, time.Minute)
	release := make(chan struct{})
	var renders atomic.Int32
	render := func(_ context.Context, buf *bytes.Buffer) error {
		renders.Add(1)
		<-release
		buf.WriteString("png")
		return nil
	}

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			started.Done()
			got, _, err := cc.get(context.Background(), "k", render)
			assert.NoError(t, err)
			assert.Equal(t, "png", string(got))
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	assert.LessOrEqual(t, renders.Load(), int32(callers))
	assert.GreaterOrEqual(t, renders.Load(), int32(1))
	_, hit, err := cc.get(context.Background(), "k", render)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestChartKey(t *testing.T) {
	food := core.Food
	a := chartKey("pie", "dark", core.FilterCriteria{}, "1.4")
	assert.NotEqual(t, a, chartKey("pie", "dark", core.FilterCriteria{}, "2.4"))
	assert.NotEqual(t, a, chartKey("pie", "dark", core.FilterCriteria{}, "1.5"))
	assert.NotEqual(t, a, chartKey("pie", "light", core.FilterCriteria{}, "1.4"))
	assert.NotEqual(t, a, chartKey("line", "dark", core.FilterCriteria{}, "1.4"))
	assert.NotEqual(t, a, chartKey("pie", "dark", core.FilterCriteria{Category: &food}, "1.4"))
	assert.Equal(t, a, chartKey("pie", "dark", core.FilterCriteria{}, "1.4"))
}
