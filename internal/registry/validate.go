package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/xpigraph/internal/config"
	"github.com/specialistvlad/xpigraph/internal/ctxlog"
)

// ValidateKinds performs a parity check between the loaded kinds and the
// registered transforms. Every problem is reported, not just the first.
func (r *Registry) ValidateKinds(ctx context.Context, kinds []*config.Kind) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range kinds {
		for _, name := range kind.Transforms {
			if _, ok := r.transforms[name]; !ok {
				errs = append(errs, fmt.Sprintf("kind '%s': transform '%s' is not registered", kind.Name, name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validated.", "kinds", len(kinds), "transforms", len(r.transforms))
	return nil
}
