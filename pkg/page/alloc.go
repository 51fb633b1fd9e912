package page

import "github.com/AtriumDB/atrium/pkg/config"

// Allocate validates cfg and hands back a page over a freshly allocated
// extent of cfg.PageSize bytes. Callers that map extents themselves use
// NewPage directly; Allocate exists for tests, tools and in-memory use. A
// nil cfg means the defaults.
func Allocate(cfg *config.Config, typ PageType, id uint32, opts ...Option) (*Page, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewPage(make([]byte, cfg.PageSize), typ, id, opts...)
}
