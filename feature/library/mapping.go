package library

import (
	"entity-mapper/core/mapper"

	"go.uber.org/zap"
)

// NewMapper registers the library's entity and DTO pairs. Reviews removed from a book
// are deleted; detached authors and tags are only unlinked, per cfg.
func NewMapper(cfg mapper.Config, logger *zap.Logger) (*mapper.Mapper, error) {
	return mapper.NewBuilder(cfg, mapper.WithLogger(logger)).
		RegisterTwoWay((*Book)(nil), (*BookDTO)(nil), mapper.KeepPropertyOnRemoved("Reviews", false)).
		Build()
}
