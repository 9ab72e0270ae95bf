// Package main provides the webstudio binary: the storefront API of the agency,
// covering templates, cart, checkout, deposits and final payments.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"webstudio/internal/config"
	"webstudio/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

const (
	Version = "0.1.0"
	appName = "webstudio"
)

func main() {
	if err := rootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Storefront API for website templates and design packages",
		Long: `webstudio serves the template catalog, the session cart and the
order lifecycle of the agency storefront: checkout, deposit, fulfillment
and final payment.

Configuration is read from the environment (APP_PORT, STORAGE_DRIVER,
DATABASE_DSN, JWT_SECRET, RABBITMQ_URL, ...). Flags override it.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd(v))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cfg)
		},
	}

	cmd.Flags().String("port", "", "Listen address, e.g. :8080 (APP_PORT)")
	cmd.Flags().String("storage", "", "Storage driver: sqlite, postgres or memory (STORAGE_DRIVER)")
	cmd.Flags().String("dsn", "", "Database DSN (DATABASE_DSN)")
	cmd.Flags().String("rabbitmq-url", "", "AMQP URL for order events (RABBITMQ_URL)")
	cmd.Flags().Bool("simulate-latency", true, "Delay logins and payments like the real providers (SIMULATE_LATENCY)")

	bindFlag(v, cmd, "APP_PORT", "port")
	bindFlag(v, cmd, "STORAGE_DRIVER", "storage")
	bindFlag(v, cmd, "DATABASE_DSN", "dsn")
	bindFlag(v, cmd, "RABBITMQ_URL", "rabbitmq-url")
	bindFlag(v, cmd, "SIMULATE_LATENCY", "simulate-latency")
	return cmd
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		log.Fatalf("Failed to bind flag %s: %v", flag, err)
	}
}

func serve(cfg *config.Config) error {
	app, err := NewApp(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer app.Close() // Ensure the connections are closed on exit

	if app.MQ != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		if err := app.MQ.ConsumeOrderEvents(logOrderEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		errCh <- app.Fiber.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")
	if err := app.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}

// logOrderEvent is the consumer side of the order events: it records every
// lifecycle change in the service log.
func logOrderEvent(msg amqp.Delivery) error {
	var ev services.OrderEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		return fmt.Errorf("malformed order event: %w", err)
	}
	switch ev.Type {
	case services.EventOrderStatusChanged:
		log.Printf("Order %s of %s: %s -> %s", ev.OrderID, ev.CustomerID, ev.PreviousStatus, ev.Status)
	case services.EventOrderPaymentCaptured:
		log.Printf("Order %s: captured %d (transaction %s)", ev.OrderID, ev.Amount, ev.TransactionID)
	default:
		log.Printf("Order %s: %s (%s)", ev.OrderID, ev.Type, ev.Status)
	}
	return nil
}
