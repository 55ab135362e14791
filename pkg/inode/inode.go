package inode

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	. "github.com/kelpfs/kelp/global" //lint:ignore ST1001 ignore
	"github.com/kelpfs/kelp/pkg/format"
	"github.com/kelpfs/kelp/pkg/item"
)

var (
	ErrNotRoot       = errors.New("not the reserved root object id")
	ErrCorruptObject = errors.New("corrupt object item")
)

const objectItemSize = 8 + 4 + 4 + 8 + 4

// Inode is the minimal object the bootstrap hands to the VFS layer as the
// mount entry point.
type Inode struct {
	Ino   Ino
	Mode  os.FileMode
	Nlink uint32
	Ctime time.Time
}

func (i *Inode) IsDir() bool {
	return i.Mode.IsDir()
}

// Registry resolves object items out of the mount's item cache.
type Registry struct {
	items *item.Cache
	lg    *zap.Logger
}

func NewRegistry(items *item.Cache, lg *zap.Logger) *Registry {
	return &Registry{items: items, lg: lg.Named("inode")}
}

// LoadOrCreateRoot returns the root directory object, creating its item on
// first use. Only the reserved root id is accepted.
func (r *Registry) LoadOrCreateRoot(ctx context.Context, ino Ino) (*Inode, error) {
	if ino != format.RootIno {
		return nil, errors.Wrapf(ErrNotRoot, "ino %d", ino)
	}

	if it, ok := r.items.Lookup(objectKey(ino)); ok {
		return decodeObject(it)
	}

	now := time.Now()
	root := &Inode{
		Ino:   ino,
		Mode:  os.ModeDir | 0o755,
		Nlink: 2,
		Ctime: now,
	}
	r.items.InsertDirty(encodeObject(root))
	r.lg.Info("created root directory object", zap.Uint64("ino", ino))
	return root, nil
}

func objectKey(ino Ino) item.Key {
	return item.Key(fmt.Sprintf("ino/%016x", ino))
}

func encodeObject(in *Inode) item.Item {
	buf := make([]byte, objectItemSize)
	binary.LittleEndian.PutUint64(buf[0:], in.Ino)
	binary.LittleEndian.PutUint32(buf[8:], uint32(in.Mode))
	binary.LittleEndian.PutUint32(buf[12:], in.Nlink)
	binary.LittleEndian.PutUint64(buf[16:], uint64(in.Ctime.Unix()))
	binary.LittleEndian.PutUint32(buf[24:], uint32(in.Ctime.Nanosecond()))
	return item.Item{Key: objectKey(in.Ino), Val: buf}
}

func decodeObject(it item.Item) (*Inode, error) {
	if len(it.Val) != objectItemSize {
		return nil, errors.Wrapf(ErrCorruptObject, "key %s has %d bytes", it.Key, len(it.Val))
	}
	sec := int64(binary.LittleEndian.Uint64(it.Val[16:]))
	nsec := int64(binary.LittleEndian.Uint32(it.Val[24:]))
	return &Inode{
		Ino:   binary.LittleEndian.Uint64(it.Val[0:]),
		Mode:  os.FileMode(binary.LittleEndian.Uint32(it.Val[8:])),
		Nlink: binary.LittleEndian.Uint32(it.Val[12:]),
		Ctime: time.Unix(sec, nsec),
	}, nil
}
