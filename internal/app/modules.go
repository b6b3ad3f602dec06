package app

import (
	"github.com/specialistvlad/xpigraph/internal/registry"
	"github.com/specialistvlad/xpigraph/modules/build"
	"github.com/specialistvlad/xpigraph/modules/cached"
	"github.com/specialistvlad/xpigraph/modules/signing"
	"github.com/specialistvlad/xpigraph/modules/test"
)

// coreModules returns the modules compiled into the xpigraph binary. Some
// modules keep per-run state, so every App gets fresh instances.
func coreModules() []registry.Module {
	return []registry.Module{
		&build.Module{},
		&test.Module{},
		&signing.Module{},
		&cached.Module{},
	}
}
