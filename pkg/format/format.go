package format

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidBrick = fmt.Errorf("invalid brick")

const (
	// BrickSize is the unit of all metadata I/O. Every persisted structure
	// occupies exactly one brick.
	BrickSize = 4096

	// SuperblockMagic identifies a brick as a superblock.
	SuperblockMagic uint64 = 0x6b656c7053425f31

	FormatVersion uint32 = 1

	// The two superblock replicas sit at the front of the device; everything
	// up to FirstFreeBrick is reserved.
	SuperBrickBase = 0
	ReplicaCount   = 2
	FirstFreeBrick = 2

	RootIno uint64 = 1
)

const (
	headerIDOffset       = 0
	headerChecksumOffset = headerIDOffset + 8
	headerSeqOffset      = headerChecksumOffset + 4
	HeaderSize           = headerSeqOffset + 8

	fmtVersOffset     = HeaderSize
	volumeIDOffset    = fmtVersOffset + 4
	totalBricksOffset = volumeIDOffset + 16
	rootInoOffset     = totalBricksOffset + 8
)

type (
	// Header leads every persisted brick. The checksum covers the whole
	// brick except the checksum field itself.
	Header struct {
		ID       uint64 // magic identifying the brick type
		Checksum uint32 // CRC32C of the rest of the brick
		Seq      uint64 // generation, bumped on every write
	}

	Superblock struct {
		Hdr         Header
		FmtVers     uint32
		VolumeID    uuid.UUID
		TotalBricks uint64
		RootIno     uint64
	}
)

// DecodeHeader reads the common brick header. It performs no validation
// beyond the buffer size; callers check the magic and checksum themselves.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != BrickSize {
		return Header{}, ErrInvalidBrick
	}
	return Header{
		ID:       binary.LittleEndian.Uint64(buf[headerIDOffset:]),
		Checksum: binary.LittleEndian.Uint32(buf[headerChecksumOffset:]),
		Seq:      binary.LittleEndian.Uint64(buf[headerSeqOffset:]),
	}, nil
}

// Encode lays the superblock out into a fresh brick buffer and stamps the
// checksum, both into the buffer and into sb.Hdr.Checksum.
func (sb *Superblock) Encode() ([]byte, error) {
	buf := make([]byte, BrickSize)
	binary.LittleEndian.PutUint64(buf[headerIDOffset:], sb.Hdr.ID)
	binary.LittleEndian.PutUint64(buf[headerSeqOffset:], sb.Hdr.Seq)
	binary.LittleEndian.PutUint32(buf[fmtVersOffset:], sb.FmtVers)
	copy(buf[volumeIDOffset:volumeIDOffset+16], sb.VolumeID[:])
	binary.LittleEndian.PutUint64(buf[totalBricksOffset:], sb.TotalBricks)
	binary.LittleEndian.PutUint64(buf[rootInoOffset:], sb.RootIno)

	crc, err := ComputeChecksum(buf)
	if err != nil {
		return nil, err
	}
	sb.Hdr.Checksum = crc
	binary.LittleEndian.PutUint32(buf[headerChecksumOffset:], crc)
	return buf, nil
}

// DecodeSuperblock parses a superblock brick into an owned value. The
// returned struct shares no memory with buf, so I/O buffers may be reused
// freely afterwards.
func DecodeSuperblock(buf []byte) (*Superblock, error) {
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	sb := &Superblock{
		Hdr:         hdr,
		FmtVers:     binary.LittleEndian.Uint32(buf[fmtVersOffset:]),
		TotalBricks: binary.LittleEndian.Uint64(buf[totalBricksOffset:]),
		RootIno:     binary.LittleEndian.Uint64(buf[rootInoOffset:]),
	}
	copy(sb.VolumeID[:], buf[volumeIDOffset:volumeIDOffset+16])
	return sb, nil
}
