package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"latte-lab/internal/config"
	"latte-lab/internal/database"
	"latte-lab/internal/gateway"
	"latte-lab/internal/logger"
	"latte-lab/internal/menu"
	"latte-lab/internal/messaging"
	"latte-lab/internal/models"
	"latte-lab/internal/order"
	"latte-lab/internal/selection"
	"latte-lab/internal/services/catalog"
	"latte-lab/internal/services/notification"
	"latte-lab/internal/services/orders"
)

func main() {
	var (
		mode     = flag.String("mode", "", "Service mode (api-service, notification-subscriber, client)")
		port     = flag.Int("port", 3000, "HTTP port for api-service")
		user     = flag.String("user", "guest", "User name for client mode")
		itemID   = flag.String("item", "", "Menu item id for client mode (defaults to the first item)")
		qty      = flag.Int("qty", 1, "Quantity for client mode")
		complete = flag.Bool("complete", false, "Complete the order after submitting it")
		prefetch = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "api-service":
		if err := runAPIService(ctx, cfg, log, *port); err != nil {
			log.Error("service_failed", "API service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log, *prefetch); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	case "client":
		if err := runClient(ctx, cfg, log, *user, *itemID, *qty, *complete); err != nil {
			log.Error("client_failed", "Order client failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPIService serves the Menu and Order concept endpoints
func runAPIService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)

	catalogService := catalog.NewService(db, log)
	orderService := orders.NewService(db, publisher, catalogService, log)

	mux := http.NewServeMux()
	catalog.NewHandler(catalogService, log).Register(mux)
	orders.NewHandler(orderService, log).Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		w.Header().Set("Content-Type", "application/json")
		if !catalogService.HealthCheck(r.Context()) {
			status = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintf(w, `{"status":%q,"timestamp":%q}`, status, time.Now().UTC().Format(time.RFC3339))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: withLogging(mux, log),
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("API service started on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runNotificationSubscriber consumes order events and prints them
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.OrderEventsQueue, "notification-subscriber", prefetch)
	subscriber := notification.NewSubscriber(consumer, log)

	return subscriber.Start(ctx)
}

// runClient drives the ordering workflow end to end: load the menu,
// validate a selection set and place one order
func runClient(ctx context.Context, cfg *config.Config, log *logger.Logger, user, itemID string, qty int, complete bool) error {
	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	client := gateway.NewClient(cfg.API.BaseURL, timeout, log)
	menuGateway := gateway.NewMenuGateway(client)
	orderGateway := gateway.NewOrderGateway(client)

	engine := menu.NewEngine(menuGateway, log)
	validator := selection.NewValidator(menuGateway, log)
	session := order.NewSession(orderGateway, log)

	items, err := engine.LoadMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to load menu: %w", err)
	}
	fmt.Printf("Menu has %d items:\n", len(items))
	for _, item := range items {
		fmt.Printf("  %-14s %s (%d options)\n", item.ID, item.Name, len(item.Options))
	}

	chosen := items[0]
	if itemID != "" {
		found, ok := engine.ItemWithOptions(itemID)
		if !ok {
			return fmt.Errorf("unknown menu item %q", itemID)
		}
		chosen = found
	}

	selections, selectionsWithNames := defaultSelections(chosen)

	if result := selection.Precheck(chosen, selections); !result.OK {
		return fmt.Errorf("selection pre-check rejected: %s", result.Reason)
	}
	if result := validator.Validate(ctx, chosen.ID, selections); !result.OK {
		return fmt.Errorf("selection rejected: %s", result.Reason)
	}

	orderID, err := session.Open(ctx, user)
	if err != nil {
		return err
	}
	fmt.Printf("Opened order %s for %s\n", orderID, user)

	if _, err := session.AddItem(ctx, chosen.ID, qty, selections, chosen.Name, selectionsWithNames); err != nil {
		return err
	}

	current, _ := session.Current()
	fmt.Printf("Order now has %d line(s)\n", len(current.Lines))

	if err := session.Submit(ctx); err != nil {
		return err
	}
	fmt.Printf("Submitted order %s, server status: %s\n", orderID, session.Status(ctx))

	pending, err := orderGateway.OrdersByStatus(ctx, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending orders: %w", err)
	}
	fmt.Printf("%d order(s) currently pending\n", len(pending))

	if complete {
		if err := orderGateway.Complete(ctx, orderID); err != nil {
			return err
		}
		fmt.Printf("Completed order %s, server status: %s\n", orderID, session.Status(ctx))
	}

	return nil
}

// defaultSelections picks the first choice of every required option
func defaultSelections(item models.MenuItemWithOptions) ([]models.Selection, []models.SelectionWithNames) {
	var selections []models.Selection
	var withNames []models.SelectionWithNames

	for _, option := range item.Options {
		if !option.Required || len(option.Choices) == 0 {
			continue
		}
		choice := option.Choices[0]
		selections = append(selections, models.Selection{Option: option.ID, Choice: choice.ID})
		withNames = append(withNames, models.SelectionWithNames{
			Option:            option.ID,
			Choice:            choice.ID,
			DisplayOptionName: option.Name,
			DisplayChoiceName: choice.Name,
		})
	}
	return selections, withNames
}

// withLogging logs every request with its status and duration
func withLogging(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
