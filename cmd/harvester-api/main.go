package main

import (
	"tethys-harvester/internal/api"
	"tethys-harvester/internal/api/handler"
	"tethys-harvester/internal/store"
	"tethys-harvester/pkg/logging"
	"tethys-harvester/pkg/router"
)

// @title Tethys Harvester API
// @version 1.0
// @description Fetch, deduplicate and consolidate Tethys data files
// @BasePath /api/v1
func main() {
	log, closeLog, err := logging.New("logs")
	if err != nil {
		panic(err)
	}
	defer closeLog()

	// Init DB
	if err := store.InitDB("harvester.db"); err != nil {
		panic(err)
	}
	defer store.CloseDB()

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r, handler.New(log))

	// Start server
	r.Start(":8080")
}
