package main

import (
	"github.com/seedlog/seedlog/config"
	"github.com/seedlog/seedlog/events"
	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/routes"
	"github.com/seedlog/seedlog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Entry{}, &models.Collection{})

	hub := events.NewHub()
	r := routes.SetupRouter(db, hub)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
