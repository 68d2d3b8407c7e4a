package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"visualdilemma/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClient struct {
	id          int
	disconnects atomic.Int32
}

func (c *fakeClient) Database(string, ...*options.DatabaseOptions) *mongo.Database { return nil }
func (c *fakeClient) Ping(context.Context, *readpref.ReadPref) error               { return nil }
func (c *fakeClient) Disconnect(context.Context) error {
	c.disconnects.Add(1)
	return nil
}

// fakeDialer считает попытки подключения; gate (если задан) держит попытку до закрытия.
// fail (если задан) решает по номеру попытки, вернуть ли ошибку.
type fakeDialer struct {
	calls   atomic.Int32
	gate    chan struct{}
	started chan struct{}
	fail    func(call int32) error
	uris    chan string
}

func (d *fakeDialer) dial(ctx context.Context, uri string) (Client, error) {
	n := d.calls.Add(1)
	if d.uris != nil {
		d.uris <- uri
	}
	if d.started != nil {
		d.started <- struct{}{}
	}
	if d.gate != nil {
		<-d.gate
	}
	if d.fail != nil {
		if err := d.fail(n); err != nil {
			return nil, err
		}
	}
	return &fakeClient{id: int(n)}, nil
}

func newTestManager(d *fakeDialer) *Manager {
	return NewManager(Config{URI: "mongodb://test:27017/db", Database: "db"}, d.dial, zap.NewNop())
}

// acquireAll запускает callers вызовов Acquire и открывает gate только после того,
// как все они присоединились к попытке подключения.
func acquireAll(t *testing.T, m *Manager, d *fakeDialer, callers int) ([]Client, []error) {
	t.Helper()
	var joined atomic.Int32
	m.joined = func() { joined.Add(1) }

	results := make([]Client, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Acquire(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		return joined.Load() == int32(callers)
	}, 2*time.Second, time.Millisecond, "not every caller joined the attempt")
	close(d.gate)
	wg.Wait()
	return results, errs
}

func TestManagerAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent callers share one attempt", func(t *testing.T) {
		d := &fakeDialer{gate: make(chan struct{})}
		m := newTestManager(d)

		const callers = 20
		results, errs := acquireAll(t, m, d, callers)

		assert.Equal(t, int32(1), d.calls.Load())
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Same(t, results[0], results[i])
		}
	})

	t.Run("Cached client is returned without dialing", func(t *testing.T) {
		d := &fakeDialer{}
		m := newTestManager(d)

		first, err := m.Acquire(ctx)
		require.NoError(t, err)
		second, err := m.Acquire(ctx)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), d.calls.Load())
	})

	t.Run("Failure reaches every waiter and next call retries", func(t *testing.T) {
		dialErr := errors.New("connection refused")
		d := &fakeDialer{
			gate: make(chan struct{}),
			fail: func(call int32) error {
				if call == 1 {
					return dialErr
				}
				return nil
			},
		}
		m := newTestManager(d)

		const callers = 5
		_, errs := acquireAll(t, m, d, callers)

		assert.Equal(t, int32(1), d.calls.Load())
		for _, err := range errs {
			assert.ErrorIs(t, err, dialErr)
		}

		client, err := m.Acquire(ctx)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, int32(2), d.calls.Load())
	})

	t.Run("Cancelled caller stops waiting, attempt continues", func(t *testing.T) {
		d := &fakeDialer{gate: make(chan struct{}), started: make(chan struct{}, 1)}
		m := newTestManager(d)

		cctx, cancel := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() {
			_, err := m.Acquire(cctx)
			errCh <- err
		}()
		<-d.started
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)

		close(d.gate)
		require.Eventually(t, func() bool {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.client != nil
		}, time.Second, 10*time.Millisecond)

		_, err := m.Acquire(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), d.calls.Load())
	})
}

func TestManagerRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("Release closes client and next Acquire reconnects", func(t *testing.T) {
		d := &fakeDialer{}
		m := newTestManager(d)

		first, err := m.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, m.Release(ctx))
		assert.Equal(t, int32(1), first.(*fakeClient).disconnects.Load())

		second, err := m.Acquire(ctx)
		require.NoError(t, err)
		assert.NotSame(t, first, second)
		assert.Equal(t, int32(2), d.calls.Load())
	})

	t.Run("Release is idempotent", func(t *testing.T) {
		d := &fakeDialer{}
		m := newTestManager(d)

		require.NoError(t, m.Release(ctx))

		client, err := m.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, m.Release(ctx))
		require.NoError(t, m.Release(ctx))
		assert.Equal(t, int32(1), client.(*fakeClient).disconnects.Load())
	})

	t.Run("Attempt started before Release is discarded", func(t *testing.T) {
		d := &fakeDialer{}
		m := newTestManager(d)
		_, err := m.Acquire(ctx)
		require.NoError(t, err)

		// Имитируем попытку, начатую до Release: gen уже устарел.
		staleGen := m.gen
		require.NoError(t, m.Release(ctx))

		_, err = m.connect(staleGen)
		assert.ErrorIs(t, err, ErrConnectionReleased)
		m.mu.Lock()
		assert.Nil(t, m.client)
		m.mu.Unlock()
	})
}

func TestManagerOnConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Runs once for every new client", func(t *testing.T) {
		d := &fakeDialer{}
		var hooks atomic.Int32
		m := NewManager(Config{
			URI:      "mongodb://test:27017/db",
			Database: "db",
			OnConnect: func(context.Context, *mongo.Database) error {
				hooks.Add(1)
				return nil
			},
		}, d.dial, zap.NewNop())

		_, err := m.Acquire(ctx)
		require.NoError(t, err)
		_, err = m.Acquire(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), hooks.Load(), "cached client must not rerun the hook")

		require.NoError(t, m.Release(ctx))
		_, err = m.Acquire(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), hooks.Load())
	})

	t.Run("Hook failure fails the attempt and next call retries", func(t *testing.T) {
		schemaErr := errors.New("index build failed")
		d := &fakeDialer{}
		var hooks atomic.Int32
		m := NewManager(Config{
			URI:      "mongodb://test:27017/db",
			Database: "db",
			OnConnect: func(context.Context, *mongo.Database) error {
				if hooks.Add(1) == 1 {
					return schemaErr
				}
				return nil
			},
		}, d.dial, zap.NewNop())

		client, err := m.Acquire(ctx)
		assert.ErrorIs(t, err, schemaErr)
		assert.Nil(t, client)
		m.mu.Lock()
		assert.Nil(t, m.client)
		m.mu.Unlock()

		client, err = m.Acquire(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), d.calls.Load())
		assert.Equal(t, int32(2), hooks.Load())
		assert.Equal(t, 2, client.(*fakeClient).id)
	})

	t.Run("Client rejected by the hook is disconnected", func(t *testing.T) {
		var dialed *fakeClient
		dial := func(context.Context, string) (Client, error) {
			dialed = &fakeClient{id: 1}
			return dialed, nil
		}
		m := NewManager(Config{
			URI:      "mongodb://test:27017/db",
			Database: "db",
			OnConnect: func(context.Context, *mongo.Database) error {
				return errors.New("not primary")
			},
		}, dial, zap.NewNop())

		_, err := m.Acquire(ctx)
		require.Error(t, err)
		require.NotNil(t, dialed)
		assert.Equal(t, int32(1), dialed.disconnects.Load())
	})
}

func TestManagerFallbackWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := &fakeDialer{uris: make(chan string, 1)}

	m := NewManager(Config{
		URI:          config.LocalMongoURI,
		Database:     "visualdilemma",
		FallbackUsed: true,
	}, d.dial, zap.New(core))

	warnings := logs.FilterMessageSnippet("MONGODB_URI is not configured").All()
	require.Len(t, warnings, 1)

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017/visualdilemma", <-d.uris)
}
