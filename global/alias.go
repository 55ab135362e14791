package global

type (
	Ino     = uint64
	BrickNo = uint64
	Seq     = uint64
)
