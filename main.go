package main

import (
	"fmt"
	"log"
	"os"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/internal/database"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/server"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: domain-monitor <command>")
		fmt.Println("Commands:")
		fmt.Println("  migrate   Run database migrations")
		fmt.Println("  server    Start the application server")
		os.Exit(1)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}
	if cfg == nil {
		log.Fatalf("config is empty")
	}

	// Setup the database
	monitorDB, err := database.InitMonitorDatabase(&database.DatabaseConfig{
		DBName:          cfg.MonitorDatabaseConfig.DBName,
		Host:            cfg.MonitorDatabaseConfig.Host,
		Port:            cfg.MonitorDatabaseConfig.Port,
		User:            cfg.MonitorDatabaseConfig.User,
		Password:        cfg.MonitorDatabaseConfig.Password,
		MaxConn:         cfg.MonitorDatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.MonitorDatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.MonitorDatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.MonitorDatabaseConfig.LogLevel,
		SSLMode:         cfg.MonitorDatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("Monitor database initialization failed: %v", err)
	}

	switch os.Args[1] {
	case "migrate":

		err := repository.MigrateMonitorDB(cfg.MonitorDatabaseConfig, monitorDB)
		if err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		log.Println("Database migration completed successfully")

	case "server":

		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("Domain monitor starting up...")

		srv, err := server.NewServer(cfg, monitorDB)
		if err != nil {
			log.Fatalf("Server setup failed: %v", err)
		}

		err = srv.Run()
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}

		log.Println("Shutdown complete")

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Usage: domain-monitor <command>")
		fmt.Println("Commands:")
		fmt.Println("  migrate   Run database migrations")
		fmt.Println("  server    Start the application server")
		os.Exit(1)
	}
}
