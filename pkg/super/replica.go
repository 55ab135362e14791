package super

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/kelpfs/kelp/pkg/device"
	"github.com/kelpfs/kelp/pkg/format"
)

var ErrNoValidSuperblock = errors.New("no valid superblock")

// candidate is a validated replica still in the running.
type candidate struct {
	sb      *format.Superblock
	replica int
}

// SelectSuperblock inspects both superblock replicas and returns an owned
// copy of the valid one with the highest sequence, plus the replica index it
// came from. Both replicas are always read: stopping at the first valid one
// could pick a stale generation. A replica that is unreadable, carries the
// wrong magic, or fails its checksum is skipped with a warning; only losing
// both replicas fails the call.
func SelectSuperblock(ctx context.Context, dev device.BlockDevice, lg *zap.Logger) (*format.Superblock, int, error) {
	best := mo.None[candidate]()

	for i := 0; i < format.ReplicaCount; i++ {
		brickNo := uint64(format.SuperBrickBase + i)

		buf, err := dev.ReadBrick(ctx, brickNo)
		if err != nil {
			lg.Warn("couldn't read super brick", zap.Int("replica", i), zap.Error(err))
			continue
		}

		hdr, err := format.DecodeHeader(buf)
		if err != nil {
			lg.Warn("super brick malformed", zap.Int("replica", i), zap.Error(err))
			continue
		}

		if hdr.ID != format.SuperblockMagic {
			lg.Warn("super brick has invalid id",
				zap.Int("replica", i),
				zap.Uint64("id", hdr.ID))
			continue
		}

		if !format.VerifyChecksum(buf) {
			crc, _ := format.ComputeChecksum(buf)
			lg.Warn("super brick has bad crc",
				zap.Int("replica", i),
				zap.Uint32("crc", crc),
				zap.Uint32("expected", hdr.Checksum))
			continue
		}

		sb, err := format.DecodeSuperblock(buf)
		if err != nil {
			lg.Warn("super brick undecodable", zap.Int("replica", i), zap.Error(err))
			continue
		}

		// strict > keeps the earliest replica on equal sequences
		if cur, ok := best.Get(); !ok || sb.Hdr.Seq > cur.sb.Hdr.Seq {
			best = mo.Some(candidate{sb: sb, replica: i})
		}
	}

	cur, ok := best.Get()
	if !ok {
		return nil, -1, ErrNoValidSuperblock
	}

	lg.Info("using superblock",
		zap.Int("replica", cur.replica),
		zap.Uint64("seq", cur.sb.Hdr.Seq))
	return cur.sb, cur.replica, nil
}
