package device

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/kelpfs/kelp/pkg/format"
)

var (
	ErrOutOfRange   = errors.New("brick out of device range")
	ErrBadBlockSize = errors.New("unsupported block size")
	ErrShortBrick   = errors.New("buffer is not one brick")
)

// BlockDevice is brick-granular storage for metadata structures. ReadBrick
// always hands back a buffer the caller owns.
type BlockDevice interface {
	ReadBrick(ctx context.Context, brickNo uint64) ([]byte, error)
	WriteBrick(ctx context.Context, brickNo uint64, buf []byte) error
	SetBlockSize(size int) error
	Bricks() uint64
	io.Closer
}

func checkBlockSize(size int) error {
	if size < 512 || size > format.BrickSize || size&(size-1) != 0 {
		return errors.Wrapf(ErrBadBlockSize, "%d", size)
	}
	return nil
}
