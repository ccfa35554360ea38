package cachemanager_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pumlview/internal/cachemanager"
	"github.com/zjrosen/pumlview/internal/mocks"
)

type renderInput struct {
	Source string
}

func echoLoader(calls *atomic.Int32) func(context.Context, renderInput) (string, error) {
	return func(_ context.Context, in renderInput) (string, error) {
		calls.Add(1)
		return "out:" + in.Source, nil
	}
}

func TestReadThroughCache_SkipCacheAlwaysLoads(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, string](t)
	var calls atomic.Int32
	rtc := cachemanager.NewReadThroughCache[string, string, renderInput](managerMock, echoLoader(&calls), true)

	got, err := rtc.Get(context.Background(), "k", renderInput{Source: "a"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "out:a", got)

	got, err = rtc.GetWithRefresh(context.Background(), "k", renderInput{Source: "a"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "out:a", got)
	require.Equal(t, int32(2), calls.Load())
}

func TestReadThroughCache_HitDoesNotLoad(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, string](t)
	managerMock.On("Get", mock.Anything, "k").Return("cached", true).Once()

	var calls atomic.Int32
	rtc := cachemanager.NewReadThroughCache[string, string, renderInput](managerMock, echoLoader(&calls), false)

	got, err := rtc.Get(context.Background(), "k", renderInput{Source: "a"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got)
	require.Zero(t, calls.Load())
}

func TestReadThroughCache_MissLoadsAndStores(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, string](t)
	managerMock.On("Get", mock.Anything, "k").Return("", false).Once()
	managerMock.On("Set", mock.Anything, "k", "out:a", time.Minute).Return().Once()

	var calls atomic.Int32
	rtc := cachemanager.NewReadThroughCache[string, string, renderInput](managerMock, echoLoader(&calls), false)

	got, err := rtc.Get(context.Background(), "k", renderInput{Source: "a"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "out:a", got)
	require.Equal(t, int32(1), calls.Load())
}

func TestReadThroughCache_LoadErrorIsNotStored(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, string](t)
	managerMock.On("GetWithRefresh", mock.Anything, "k", time.Minute).Return("", false).Once()

	boom := errors.New("backend down")
	rtc := cachemanager.NewReadThroughCache[string, string, renderInput](managerMock,
		func(context.Context, renderInput) (string, error) { return "", boom }, false)

	_, err := rtc.GetWithRefresh(context.Background(), "k", renderInput{}, time.Minute)
	require.ErrorIs(t, err, boom)
	managerMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	cache := cachemanager.NewInMemoryCacheManager[string, string]("render", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	release := make(chan struct{})
	var calls atomic.Int32
	rtc := cachemanager.NewReadThroughCache[string, string, renderInput](cache,
		func(_ context.Context, in renderInput) (string, error) {
			calls.Add(1)
			<-release
			return "out:" + in.Source, nil
		}, false)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = rtc.Get(context.Background(), "k", renderInput{Source: "a"}, time.Minute)
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		require.Equal(t, "out:a", r)
	}
}

func TestReadThroughCache_JoinedCallCancelledByOtherCallerIsRetried(t *testing.T) {
	cache := cachemanager.NewInMemoryCacheManager[string, string]("render", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	started := make(chan struct{})
	proceed := make(chan struct{})
	var calls atomic.Int32
	rtc := cachemanager.NewReadThroughCache[string, string, renderInput](cache,
		func(ctx context.Context, in renderInput) (string, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				<-proceed
				return "", ctx.Err()
			}
			return "out:" + in.Source, nil
		}, false)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := rtc.Get(ctxA, "k", renderInput{Source: "a"}, time.Minute)
		errA <- err
	}()
	<-started

	type result struct {
		value string
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := rtc.Get(context.Background(), "k", renderInput{Source: "a"}, time.Minute)
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancelA()
	close(proceed)

	require.ErrorIs(t, <-errA, context.Canceled)
	b := <-resB
	require.NoError(t, b.err, "a live caller does not inherit another caller's cancellation")
	require.Equal(t, "out:a", b.value)
	require.Equal(t, int32(2), calls.Load())
}
