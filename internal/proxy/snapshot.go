package proxy

import (
	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/rewrite"
	"github.com/vyrodovalexey/mfrouter/internal/router"
)

// Snapshot is the immutable routing state a request is served with.
type Snapshot struct {
	Table  *router.Table
	Assets *rewrite.AssetPrefixSet
	// MaxRewriteBodySize caps the decoded body size that is rewritten.
	// Zero or less disables the cap.
	MaxRewriteBodySize int64
}

// NewSnapshot assembles a snapshot. A nil asset set is replaced by the
// defaults.
func NewSnapshot(table *router.Table, assets *rewrite.AssetPrefixSet, maxRewriteBodySize int64) *Snapshot {
	if assets == nil {
		assets = rewrite.NewAssetPrefixSet(nil)
	}
	return &Snapshot{
		Table:              table,
		Assets:             assets,
		MaxRewriteBodySize: maxRewriteBodySize,
	}
}

// SnapshotFromConfig compiles the routes in cfg against resolver.
func SnapshotFromConfig(cfg *config.Config, resolver router.BindingResolver) (*Snapshot, error) {
	table, err := router.Build(cfg.RoutesConfig, resolver)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(table, rewrite.NewAssetPrefixSet(cfg.AssetPrefixes), cfg.MaxRewriteBodySize), nil
}
