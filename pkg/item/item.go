package item

// Key orders items byte-wise, the same order the on-disk index uses.
type Key string

// Item is one key/value metadata record.
type Item struct {
	Key Key
	Val []byte
}

func less(a, b Item) bool {
	return a.Key < b.Key
}
