package format

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestChecksumRoundTrip(t *testing.T) {
	sb := &Superblock{
		Hdr:         Header{ID: SuperblockMagic, Seq: 3},
		FmtVers:     FormatVersion,
		VolumeID:    uuid.New(),
		TotalBricks: 128,
		RootIno:     RootIno,
	}
	buf, err := sb.Encode()
	require.NoError(t, err)
	require.Len(t, buf, BrickSize)
	require.True(t, VerifyChecksum(buf))
}

func TestChecksumDetectsFlippedBytes(t *testing.T) {
	sb := &Superblock{Hdr: Header{ID: SuperblockMagic, Seq: 1}, VolumeID: uuid.New()}
	buf, err := sb.Encode()
	require.NoError(t, err)

	// every byte outside the checksum field is covered
	for _, off := range []int{0, 7, headerSeqOffset, rootInoOffset, BrickSize - 1} {
		flipped := append([]byte(nil), buf...)
		flipped[off] ^= 0xff
		require.False(t, VerifyChecksum(flipped), "flip at %d went undetected", off)
	}
}

func TestChecksumRejectsWrongSize(t *testing.T) {
	_, err := ComputeChecksum(make([]byte, BrickSize-1))
	require.ErrorIs(t, err, ErrInvalidBrick)
	require.False(t, VerifyChecksum(make([]byte, BrickSize+1)))
}

func TestSuperblockRoundTrip(t *testing.T) {
	sb := &Superblock{
		Hdr:         Header{ID: SuperblockMagic, Seq: 42},
		FmtVers:     FormatVersion,
		VolumeID:    uuid.New(),
		TotalBricks: 1 << 20,
		RootIno:     RootIno,
	}
	buf, err := sb.Encode()
	require.NoError(t, err)

	got, err := DecodeSuperblock(buf)
	require.NoError(t, err)
	require.Equal(t, sb, got)

	// decoded value owns its memory
	buf[volumeIDOffset] ^= 0xff
	require.NotEqual(t, buf[volumeIDOffset], got.VolumeID[0])
}

func TestDecodeHeaderWrongSize(t *testing.T) {
	_, err := DecodeHeader(nil)
	require.ErrorIs(t, err, ErrInvalidBrick)
}
