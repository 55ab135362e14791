package mount

import (
	"go.uber.org/zap"

	. "github.com/kelpfs/kelp/global" //lint:ignore ST1001 ignore
)

var DefaultOptions = Options{
	CacheBricks: 0,
}

type Options struct {
	Logger *zap.Logger

	// CacheBricks > 0 wraps the device in an LRU brick cache of that many
	// entries for the life of the mount.
	CacheBricks int
}

func WithLogger(lg *zap.Logger) Option[*Options] {
	return OptionFunc[*Options](func(o *Options) {
		o.Logger = lg
	})
}

func WithBrickCache(bricks int) Option[*Options] {
	return OptionFunc[*Options](func(o *Options) {
		o.CacheBricks = bricks
	})
}
