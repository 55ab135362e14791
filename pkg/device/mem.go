package device

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/kelpfs/kelp/pkg/format"
)

var _ BlockDevice = (*MemDevice)(nil)

// MemDevice keeps all bricks in memory. Used by tests and formatting tools.
type MemDevice struct {
	mu        sync.RWMutex
	bricks    [][]byte
	blockSize int
}

func NewMem(bricks uint64) *MemDevice {
	return &MemDevice{
		bricks:    make([][]byte, bricks),
		blockSize: format.BrickSize,
	}
}

func (d *MemDevice) SetBlockSize(size int) error {
	if err := checkBlockSize(size); err != nil {
		return err
	}
	d.mu.Lock()
	d.blockSize = size
	d.mu.Unlock()
	return nil
}

func (d *MemDevice) Bricks() uint64 {
	return uint64(len(d.bricks))
}

func (d *MemDevice) ReadBrick(_ context.Context, brickNo uint64) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if brickNo >= uint64(len(d.bricks)) {
		return nil, errors.Wrapf(ErrOutOfRange, "brick %d of %d", brickNo, len(d.bricks))
	}
	buf := make([]byte, format.BrickSize)
	copy(buf, d.bricks[brickNo])
	return buf, nil
}

func (d *MemDevice) WriteBrick(_ context.Context, brickNo uint64, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if brickNo >= uint64(len(d.bricks)) {
		return errors.Wrapf(ErrOutOfRange, "brick %d of %d", brickNo, len(d.bricks))
	}
	if len(buf) != format.BrickSize {
		return errors.Wrapf(ErrShortBrick, "%d bytes", len(buf))
	}
	dup := make([]byte, format.BrickSize)
	copy(dup, buf)
	d.bricks[brickNo] = dup
	return nil
}

func (d *MemDevice) Close() error {
	return nil
}
