package device

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	. "github.com/kelpfs/kelp/global" //lint:ignore ST1001 ignore
)

const minCacheBricks = 16

var _ BlockDevice = (*CachedDevice)(nil)

// CachedDevice keeps recently read bricks in an LRU so repeated metadata
// reads skip the underlying device. Writes refresh the cached copy.
type CachedDevice struct {
	BlockDevice
	cache *lru.Cache[uint64, []byte]
	lg    *zap.Logger
}

func NewCached(dev BlockDevice, bricks int, lg *zap.Logger) (*CachedDevice, error) {
	cache, err := lru.New[uint64, []byte](Max(bricks, minCacheBricks))
	if err != nil {
		return nil, err
	}
	return &CachedDevice{
		BlockDevice: dev,
		cache:       cache,
		lg:          lg.Named("brickcache"),
	}, nil
}

func (d *CachedDevice) ReadBrick(ctx context.Context, brickNo uint64) ([]byte, error) {
	if buf, ok := d.cache.Get(brickNo); ok {
		dup := make([]byte, len(buf))
		copy(dup, buf)
		return dup, nil
	}
	buf, err := d.BlockDevice.ReadBrick(ctx, brickNo)
	if err != nil {
		return nil, err
	}
	dup := make([]byte, len(buf))
	copy(dup, buf)
	d.cache.Add(brickNo, dup)
	return buf, nil
}

func (d *CachedDevice) WriteBrick(ctx context.Context, brickNo uint64, buf []byte) error {
	if err := d.BlockDevice.WriteBrick(ctx, brickNo, buf); err != nil {
		// a failed write leaves the on-disk state unknown
		d.cache.Remove(brickNo)
		return err
	}
	dup := make([]byte, len(buf))
	copy(dup, buf)
	d.cache.Add(brickNo, dup)
	return nil
}

func (d *CachedDevice) Close() error {
	d.lg.Debug("drop brick cache", zap.Int("bricks", d.cache.Len()))
	d.cache.Purge()
	return d.BlockDevice.Close()
}
