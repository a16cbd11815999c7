package pagepool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_ReturnsValue(t *testing.T) {
	p := newPool(Config{MaxWorkers: 2})
	defer p.Shutdown()

	v, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmit_PropagatesTaskError(t *testing.T) {
	p := newPool(Config{MaxWorkers: 1})
	defer p.Shutdown()

	boom := errors.New("boom")
	_, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestSubmit_TimesOutSlowTask(t *testing.T) {
	p := newPool(Config{MaxWorkers: 1, TaskTimeout: 20 * time.Millisecond})
	defer p.Shutdown()

	_, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.Error(t, err)
}

func TestSubmit_RunsConcurrently(t *testing.T) {
	p := newPool(Config{MaxWorkers: 4})
	defer p.Shutdown()

	var inFlight int32
	var maxSeen int32
	start := make(chan struct{})

	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					cur := atomic.LoadInt32(&maxSeen)
					if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
						break
					}
				}
				<-start
				atomic.AddInt32(&inFlight, -1)
				return nil, nil
			})
			results <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(start)
	for i := 0; i < 4; i++ {
		require.NoError(t, <-results)
	}
	assert.GreaterOrEqual(t, int(atomic.LoadInt32(&maxSeen)), 2)
}

func TestOneFailureDoesNotBlockOtherTasks(t *testing.T) {
	p := newPool(Config{MaxWorkers: 2})
	defer p.Shutdown()

	_, err1 := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("page 1 exploded")
	})
	v2, err2 := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "page 2 fine", nil
	})

	require.Error(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, "page 2 fine", v2)
}
