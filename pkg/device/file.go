package device

import (
	"context"
	"os"

	"github.com/avast/retry-go"
	"github.com/dustin/go-humanize"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kelpfs/kelp/pkg/format"
)

var _ BlockDevice = (*FileDevice)(nil)

// FileDevice serves bricks from a regular file or a block device node.
type FileDevice struct {
	f         *os.File
	blockSize int
	bricks    uint64
}

func OpenFile(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open device %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat device %s", path)
	}
	log.Info("open device",
		zap.String("path", path),
		zap.String("size", humanize.IBytes(uint64(info.Size()))))
	return &FileDevice{
		f:         f,
		blockSize: format.BrickSize,
		bricks:    uint64(info.Size()) / format.BrickSize,
	}, nil
}

func (d *FileDevice) SetBlockSize(size int) error {
	if err := checkBlockSize(size); err != nil {
		return err
	}
	d.blockSize = size
	return nil
}

func (d *FileDevice) Bricks() uint64 {
	return d.bricks
}

func (d *FileDevice) ReadBrick(ctx context.Context, brickNo uint64) ([]byte, error) {
	if brickNo >= d.bricks {
		return nil, errors.Wrapf(ErrOutOfRange, "brick %d of %d", brickNo, d.bricks)
	}
	buf := make([]byte, format.BrickSize)
	err := retry.Do(func() error {
		_, err := d.f.ReadAt(buf, int64(brickNo)*format.BrickSize)
		return err
	},
		retry.Attempts(2),
		retry.LastErrorOnly(true),
		retry.Context(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "read brick %d", brickNo)
	}
	return buf, nil
}

func (d *FileDevice) WriteBrick(ctx context.Context, brickNo uint64, buf []byte) error {
	if brickNo >= d.bricks {
		return errors.Wrapf(ErrOutOfRange, "brick %d of %d", brickNo, d.bricks)
	}
	if len(buf) != format.BrickSize {
		return errors.Wrapf(ErrShortBrick, "%d bytes", len(buf))
	}
	if _, err := d.f.WriteAt(buf, int64(brickNo)*format.BrickSize); err != nil {
		return errors.Wrapf(err, "write brick %d", brickNo)
	}
	return nil
}

func (d *FileDevice) Close() error {
	return d.f.Close()
}
