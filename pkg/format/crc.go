package format

import (
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ComputeChecksum returns the CRC32C of a brick, skipping the 4-byte
// checksum field in the header.
func ComputeChecksum(buf []byte) (uint32, error) {
	if len(buf) != BrickSize {
		return 0, ErrInvalidBrick
	}
	crc := crc32.Update(0, castagnoli, buf[:headerChecksumOffset])
	crc = crc32.Update(crc, castagnoli, buf[headerSeqOffset:])
	return crc, nil
}

// VerifyChecksum recomputes the brick checksum and compares it against the
// stored header field. A buffer of the wrong size never verifies.
func VerifyChecksum(buf []byte) bool {
	crc, err := ComputeChecksum(buf)
	if err != nil {
		return false
	}
	return crc == binary.LittleEndian.Uint32(buf[headerChecksumOffset:])
}
