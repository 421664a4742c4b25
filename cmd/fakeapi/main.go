// Command fakeapi serves an in-memory social API for local development.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibeclient/internal/config"
	"vibeclient/internal/fakeapi"
	"vibeclient/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	flags := pflag.NewFlagSet("fakeapi", pflag.ExitOnError)
	flags.String("port", "", "Port to listen on (FAKEAPI_PORT)")
	flags.Int("posts", 0, "Number of demo posts to seed (FAKEAPI_SEED_POSTS)")
	users := flags.Int("users", 5, "Number of demo users to seed when posts > 0")
	seed := flags.Int64("seed", 0, "Seed for reproducible demo data")
	_ = flags.Parse(os.Args[1:])

	_ = viper.BindPFlag("FAKEAPI_PORT", flags.Lookup("port"))
	_ = viper.BindPFlag("FAKEAPI_SEED_POSTS", flags.Lookup("posts"))

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateFakeAPI(); err != nil {
		log.Fatalf("Invalid fake API configuration: %v", err)
	}
	observability.SetupLogging(cfg.LogLevel)

	srv := fakeapi.New(fakeapi.Options{JWTSecret: cfg.JWTSecret})

	if cfg.SeedPosts > 0 {
		seeded, err := srv.Seed(fakeapi.SeedOptions{
			Users: *users,
			Posts: cfg.SeedPosts,
			Seed:  *seed,
		})
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		for _, u := range seeded {
			log.Printf("Seeded user %s <%s>", u.Username, u.Email)
		}
		log.Println("All seeded users have the password: password123")
	}

	app := fiber.New(fiber.Config{
		AppName:   "vibeclient fake API",
		BodyLimit: 10 * 1024 * 1024, // 10MB limit
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Fake API starting on port %s...", cfg.FakeAPIPort)
	log.Fatal(app.Listen(":" + cfg.FakeAPIPort))
}
