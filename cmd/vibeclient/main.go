// Command vibeclient is a terminal front end for the social API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vibeclient/internal/app"
	"vibeclient/internal/config"
	"vibeclient/internal/navigation"
	"vibeclient/internal/observability"
	"vibeclient/internal/render"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const usage = `Usage: vibeclient [global flags] <command> [flags]

Commands:
  login            sign in (--email, --password)
  register         create an account (--username, --email, --password, --full-name)
  logout           sign out and forget the saved session
  whoami           show the signed-in user
  feed             show the feed
  post             publish a post (--content, --image)
  like <id>        like or unlike a post
  profile [id]     show your profile or another user's
  profile-update   edit your profile (--full-name, --bio, --username, --image-url)

Global flags:
`

func main() {
	global := pflag.NewFlagSet("vibeclient", pflag.ExitOnError)
	global.SetInterspersed(false)
	global.String("api", "", "API base URL (API_BASE_URL)")
	global.String("session-backend", "", "Token storage: file, redis or memory (SESSION_BACKEND)")
	global.String("log-level", "", "Log level (LOG_LEVEL)")
	global.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		global.PrintDefaults()
	}
	_ = global.Parse(os.Args[1:])

	_ = viper.BindPFlag("API_BASE_URL", global.Lookup("api"))
	_ = viper.BindPFlag("SESSION_BACKEND", global.Lookup("session-backend"))
	_ = viper.BindPFlag("LOG_LEVEL", global.Lookup("log-level"))

	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetupLogging(cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "vibeclient",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a, err := app.New(ctx, cfg)
	if err != nil {
		stop()
		log.Fatalf("Failed to start client: %v", err)
	}

	printer := render.New(os.Stdout)
	watchToasts(a.Toast, os.Stderr)
	a.Router.OnNavigate(func(path string) {
		if path == navigation.SignInPath {
			fmt.Fprintln(os.Stderr, "Redirected to the sign-in page. Run `vibeclient login` to continue.")
		}
	})

	code := 0
	if err := a.Start(ctx); err != nil {
		log.Printf("Failed to restore session: %v", err)
		code = 1
	} else if err := execute(ctx, a, printer, os.Stdout, global.Args()); err != nil {
		code = 1
	}

	if err := a.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if err := shutdownTracing(context.Background()); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
	stop()
	os.Exit(code)
}
