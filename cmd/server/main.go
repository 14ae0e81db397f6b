package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/weprint/agent/internal/client"
	"github.com/weprint/agent/internal/config"
	"github.com/weprint/agent/internal/discovery"
	"github.com/weprint/agent/internal/handler"
	"github.com/weprint/agent/internal/middleware"
	"github.com/weprint/agent/internal/model"
	"github.com/weprint/agent/internal/service"
	"github.com/weprint/agent/internal/worker"
	"github.com/weprint/agent/pkg/response"
)

const version = "1.0.0"

func main() {
	showVersion := flag.Bool("version", false, "print the agent version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("weprint agent %s\n", version)
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Establish the shared token on first run
	if cfg.Auth.Token == "" {
		cfg.Auth.Token = uuid.New().String()
		if err := config.Persist("USER_TOKEN", cfg.Auth.Token); err != nil {
			log.Fatalf("Failed to persist token: %v", err)
		}
		log.Printf("Generated new API token: %s", cfg.Auth.Token)
	}

	// Resolve the printer endpoint, scanning the subnet on first run
	endpoint, err := resolveEndpoint(cfg)
	if err != nil {
		log.Fatalf("Failed to find a printer: %v", err)
	}
	log.Printf("Using printer: %s @ %s", endpoint.Kind, endpoint.Address)

	backend, err := client.NewPrinterBackend(endpoint)
	if err != nil {
		log.Fatalf("Failed to build printer client: %v", err)
	}

	// Slicing pipeline with the real package-manager installer
	slicerService := service.NewSlicerService(nil, cfg.Slicer.DefaultConfig, cfg.Slicer.OutputDir,
		cfg.Slicer.Timeout, service.PlatformInstaller{})
	if slicerService.Available() {
		log.Println("Slicer found, model jobs enabled")
	} else {
		log.Println("Warning: no slicer available, model jobs disabled")
	}

	// Services
	printService := service.NewPrintService(backend, slicerService)
	commandService := service.NewCommandService(printService, client.NewDownloader("."))

	// Validator
	validate := validator.New()

	// Handlers
	statusHandler := handler.NewStatusHandler(printService)
	printHandler := handler.NewPrintHandler(printService, validate)
	commandHandler := handler.NewCommandHandler(commandService, validate)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version,
			"services": fiber.Map{
				"printer": string(endpoint.Kind),
				"slicer":  slicerService.Available(),
				"cloud":   cfg.Cloud.AppURL != "",
			},
		})
	})

	// Control surface, all behind the shared token
	auth := middleware.RequireToken(cfg.Auth.Token)
	app.Get("/status", auth, statusHandler.Get)
	app.Post("/print", auth, printHandler.Print)
	app.Post("/stop", auth, printHandler.Stop)
	app.Post("/remote_command", auth, commandHandler.Execute)

	printCommands(cfg.Auth.Token, cfg.Server.Port)

	// Relay loop: status up, commands down
	var relay *worker.RelayWorker
	if cfg.Cloud.AppURL != "" {
		cloudClient := client.NewCloudClient(cfg.Cloud.AppURL, cfg.Auth.Token)
		relay = worker.NewRelayWorker(printService, cloudClient, commandService, worker.Identity{
			User:        cfg.Cloud.User,
			Token:       cfg.Auth.Token,
			PrinterName: cfg.Printer.Name,
		}, cfg.Relay.Interval)
		relay.Start()
	} else {
		log.Println("Info: APP_URL not configured, cloud relay disabled")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		if relay != nil {
			relay.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("weprint agent %s listening on %s", version, addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// resolveEndpoint loads the cached printer from config or scans the subnet
// once and persists the first hit. Re-discovery means clearing the .env
// entries and restarting; it never happens behind the caller's back.
func resolveEndpoint(cfg *config.Config) (model.PrinterEndpoint, error) {
	if cfg.Printer.Address != "" && cfg.Printer.Kind != "" {
		return model.PrinterEndpoint{
			Address: cfg.Printer.Address,
			Kind:    model.BackendKind(cfg.Printer.Kind),
			APIKey:  cfg.Printer.APIKey,
		}, nil
	}

	scanner := discovery.NewScanner(cfg.Discovery.Workers)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	found, err := scanner.Scan(ctx, cfg.Discovery.Subnet)
	if err != nil {
		return model.PrinterEndpoint{}, err
	}
	if len(found) == 0 {
		return model.PrinterEndpoint{}, fmt.Errorf("no printers found on %s", cfg.Discovery.Subnet)
	}

	endpoint := found[0]
	endpoint.APIKey = cfg.Printer.APIKey
	if err := config.Persist("PRINTER_IP", endpoint.Address); err != nil {
		return model.PrinterEndpoint{}, err
	}
	if err := config.Persist("PRINTER_TYPE", string(endpoint.Kind)); err != nil {
		return model.PrinterEndpoint{}, err
	}
	log.Printf("Saved discovered printer to %s: %s @ %s", config.EnvFile, endpoint.Kind, endpoint.Address)
	return endpoint, nil
}

func printCommands(token, port string) {
	log.Println("Use this token for API calls:")
	log.Printf(`  curl -X POST -H "Content-Type: application/json" -H "Authorization: %s" -d '{"file_path": "cube.gcode"}' http://localhost:%s/print`, token, port)
	log.Printf(`  curl -X POST -H "Content-Type: application/json" -H "Authorization: %s" -d '{"file_path": "test.stl", "config_path": "high_speed.ini"}' http://localhost:%s/print`, token, port)
	log.Printf(`  curl -X POST -H "Authorization: %s" http://localhost:%s/stop`, token, port)
	log.Printf(`  curl -X GET -H "Authorization: %s" http://localhost:%s/status`, token, port)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return response.Error(c, code, response.CodeServiceError, message, nil)
}
