// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/strata/internal/adapters/backends"
	_ "go.trai.ch/strata/internal/adapters/config"
	_ "go.trai.ch/strata/internal/adapters/lockfile"
	_ "go.trai.ch/strata/internal/adapters/logger"
	_ "go.trai.ch/strata/internal/adapters/prefix"
	_ "go.trai.ch/strata/internal/adapters/remote"
	_ "go.trai.ch/strata/internal/adapters/solver"
	// Register app nodes.
	_ "go.trai.ch/strata/internal/app"
)
