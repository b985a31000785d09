// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/planoci/plano/internal/adapters/docstore"
	_ "github.com/planoci/plano/internal/adapters/logger"
	_ "github.com/planoci/plano/internal/adapters/render"
	_ "github.com/planoci/plano/internal/adapters/watcher"
	// Register app nodes.
	_ "github.com/planoci/plano/internal/app"
)
