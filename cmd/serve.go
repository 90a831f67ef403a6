package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/notify"
	"github.com/kozaktomas/rollcall/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the Rollcall web server.
The server exposes the roster and attendance API: student management,
face enrollment, photo-based attendance capture and attendance history.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// buildGuardian wires the SMS notifier, or returns nil when no gateway is configured.
func buildGuardian(cfg *config.Config) *notify.Guardian {
	if cfg.SMS.GatewayURL == "" {
		fmt.Println("No SMS gateway configured, guardian notifications disabled")
		return nil
	}
	client := notify.NewSMSClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey)
	fmt.Printf("Guardian SMS notifications enabled via %s\n", cfg.SMS.GatewayURL)
	return notify.NewGuardian(client, cfg.Messages.Templates, cfg.SMS.SchoolName)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Println("Connecting to PostgreSQL database...")
	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Println("Loading face recognition models...")
	pipeline, closePipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closePipeline()

	deps := web.Deps{
		Students:   postgres.NewStudentRepository(pool),
		Attendance: postgres.NewAttendanceRepository(pool),
		Recognizer: pipeline,
		Guardian:   buildGuardian(cfg),
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Rollcall on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
