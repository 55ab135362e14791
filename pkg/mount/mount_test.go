package mount

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kelpfs/kelp/pkg/device"
	"github.com/kelpfs/kelp/pkg/format"
	"github.com/kelpfs/kelp/pkg/super"
)

func newVolume(t *testing.T) *device.MemDevice {
	t.Helper()
	dev := device.NewMem(64)
	_, err := super.Format(context.Background(), dev, zap.NewNop())
	require.NoError(t, err)
	return dev
}

func TestMountBootstrap(t *testing.T) {
	ctx := context.Background()
	m, err := Bootstrap(ctx, newVolume(t), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer m.Close()

	sb := m.Superblock()
	require.EqualValues(t, format.SuperblockMagic, sb.Hdr.ID)
	require.EqualValues(t, 2, sb.Hdr.Seq)
	require.Equal(t, 0, m.Replica())
	require.EqualValues(t, 64, sb.TotalBricks)

	require.True(t, m.Root().IsDir())
	require.EqualValues(t, format.RootIno, m.Root().Ino)
	require.Equal(t, 1, m.Items().DirtyLen(), "root object starts dirty")

	require.EqualValues(t, format.RootIno+1, m.AllocIno())
	require.EqualValues(t, format.RootIno+2, m.AllocIno())
	require.EqualValues(t, format.FirstFreeBrick, m.AllocBrick())

	stats := m.Stats()
	require.EqualValues(t, format.RootIno+3, stats.NextIno)
	require.Equal(t, 1, stats.DirtyItems)
	require.Equal(t, sb.VolumeID.String(), stats.VolumeID)
}

func TestMountPicksFreshestReplica(t *testing.T) {
	ctx := context.Background()
	dev := newVolume(t)

	// slot 1 holds seq 1 after Format; corrupt slot 0 (seq 2)
	buf, err := dev.ReadBrick(ctx, 0)
	require.NoError(t, err)
	buf[format.BrickSize-1] ^= 0xff
	require.NoError(t, dev.WriteBrick(ctx, 0, buf))

	m, err := Bootstrap(ctx, dev, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, 1, m.Replica())
	require.EqualValues(t, 1, m.Superblock().Hdr.Seq)
}

func TestMountFailsWithoutSuperblock(t *testing.T) {
	_, err := Bootstrap(context.Background(), device.NewMem(8), WithLogger(zap.NewNop()))
	require.ErrorIs(t, err, super.ErrNoValidSuperblock)
}

type rigidDevice struct {
	device.BlockDevice
}

func (d *rigidDevice) SetBlockSize(size int) error {
	return errors.Errorf("block size %d not supported", size)
}

func TestMountFailsOnBlockSize(t *testing.T) {
	dev := &rigidDevice{BlockDevice: newVolume(t)}
	_, err := Bootstrap(context.Background(), dev, WithLogger(zap.NewNop()))
	require.ErrorIs(t, err, ErrBlockSize)
}

func TestMountWithBrickCache(t *testing.T) {
	ctx := context.Background()
	m, err := Bootstrap(ctx, newVolume(t), WithLogger(zap.NewNop()), WithBrickCache(32))
	require.NoError(t, err)
	require.EqualValues(t, 2, m.Superblock().Hdr.Seq)
	require.NoError(t, m.Close())
}

func TestAllocInoUnique(t *testing.T) {
	ctx := context.Background()
	m, err := Bootstrap(ctx, newVolume(t), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer m.Close()

	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	var wg sync.WaitGroup
	got := make([]uint64, 0, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, m.AllocIno())
			}
			mu.Lock()
			got = append(got, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, got, workers*perWorker)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, v := range got {
		require.EqualValues(t, format.RootIno+1+uint64(i), v, "duplicate or skipped ino")
	}
}

func TestBloomKeysFreshPerMount(t *testing.T) {
	ctx := context.Background()
	dev := newVolume(t)

	m1, err := Bootstrap(ctx, dev, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	keys1 := m1.BloomKeys()
	require.NoError(t, m1.Close())

	// Close released the mem device; it is still usable for a second mount.
	m2, err := Bootstrap(ctx, dev, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer m2.Close()

	require.NotEqual(t, keys1, m2.BloomKeys())

	f := m2.HashFamily()
	require.Equal(t, f.Indexes("k", 64), m2.HashFamily().Indexes("k", 64))
}

func TestCloseExactlyOnce(t *testing.T) {
	m, err := Bootstrap(context.Background(), newVolume(t), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.ErrorIs(t, m.Close(), ErrClosed)
}
