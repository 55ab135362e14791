package super

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kelpfs/kelp/pkg/device"
	"github.com/kelpfs/kelp/pkg/format"
)

// WriteSuperblock bumps the sequence and persists the superblock into the
// replica slot owned by the new sequence. The other slot keeps the previous
// generation, so a torn write can never invalidate both replicas at once.
func WriteSuperblock(ctx context.Context, dev device.BlockDevice, sb *format.Superblock, lg *zap.Logger) error {
	sb.Hdr.ID = format.SuperblockMagic
	sb.Hdr.Seq++

	buf, err := sb.Encode()
	if err != nil {
		sb.Hdr.Seq--
		return err
	}

	brickNo := uint64(format.SuperBrickBase) + sb.Hdr.Seq%format.ReplicaCount
	if err := dev.WriteBrick(ctx, brickNo, buf); err != nil {
		sb.Hdr.Seq--
		return errors.Wrapf(err, "write super brick %d", brickNo)
	}

	lg.Debug("wrote superblock",
		zap.Uint64("brick", brickNo),
		zap.Uint64("seq", sb.Hdr.Seq))
	return nil
}

// Format initializes a fresh volume on dev: a new volume id and both
// replica slots populated, leaving the higher sequence in slot 0.
func Format(ctx context.Context, dev device.BlockDevice, lg *zap.Logger) (*format.Superblock, error) {
	if dev.Bricks() < format.FirstFreeBrick {
		return nil, errors.Wrapf(device.ErrOutOfRange, "device holds %d bricks", dev.Bricks())
	}

	sb := &format.Superblock{
		Hdr:         format.Header{ID: format.SuperblockMagic},
		FmtVers:     format.FormatVersion,
		VolumeID:    uuid.New(),
		TotalBricks: dev.Bricks(),
		RootIno:     format.RootIno,
	}
	for i := 0; i < format.ReplicaCount; i++ {
		if err := WriteSuperblock(ctx, dev, sb, lg); err != nil {
			return nil, err
		}
	}

	lg.Info("formatted volume",
		zap.String("volume", sb.VolumeID.String()),
		zap.Uint64("bricks", sb.TotalBricks))
	return sb, nil
}
