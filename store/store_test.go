package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(memoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsert_InsertsAndRefreshes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return clock }

	first, err := s.Upsert(ctx, "Pixel 8", "192.168.1.20", 41877, models.PairingMethodCode)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	clock = clock.Add(time.Minute)
	second, err := s.Upsert(ctx, "Pixel 8 Pro", "192.168.1.20", 41877, models.PairingMethodDirect)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	devices, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Pixel 8 Pro", devices[0].Name)
	assert.Equal(t, models.PairingMethodDirect, devices[0].PairingMethod)
	assert.Equal(t, clock.UnixMilli(), devices[0].LastConnected)
}

func TestList_OrderedByLastConnected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := time.UnixMilli(1_000)
	s.now = func() time.Time { return clock }
	_, err := s.Upsert(ctx, "old", "10.0.0.1", 5555, models.PairingMethodDirect)
	require.NoError(t, err)

	clock = time.UnixMilli(2_000)
	_, err = s.Upsert(ctx, "new", "10.0.0.2", 5555, models.PairingMethodCode)
	require.NoError(t, err)

	devices, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "new", devices[0].Name)
	assert.Equal(t, "old", devices[1].Name)
}

func TestPairedIPsAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d, err := s.Upsert(ctx, "tablet", "10.0.0.9", 5555, models.PairingMethodCode)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "tablet", "10.0.0.9", 5556, models.PairingMethodCode)
	require.NoError(t, err)

	ips, err := s.PairedIPs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"10.0.0.9": true}, ips)

	require.NoError(t, s.Delete(ctx, d.ID))
	require.NoError(t, s.Delete(ctx, "missing"))

	devices, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "droidkit.db")
	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	devices, err := newTestStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}
