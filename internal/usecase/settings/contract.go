package settings

import (
	"context"

	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
)

// Source supplies the current settings.
type Source interface {
	Load(ctx context.Context) (domset.Settings, error)
}

// Writer is implemented by sources that can persist settings.
type Writer interface {
	Save(ctx context.Context, s domset.Settings) error
}
