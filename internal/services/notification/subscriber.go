package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"latte-lab/internal/logger"
	"latte-lab/internal/messaging"
	"latte-lab/internal/models"
)

// Subscriber consumes order event messages and displays them.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	// Graceful shutdown
	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a new order event subscriber
func NewSubscriber(consumer *messaging.Consumer, logger *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   logger,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start starts the subscriber
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", "Order event subscriber started", requestID, nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleEvent); err != nil {
			s.logger.Error("consumer_failed", "Order event consumer failed", requestID, err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		return s.gracefulShutdown(requestID)
	case <-s.done:
		return nil
	}
}

// handleEvent processes one incoming order event
func (s *Subscriber) handleEvent(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var event models.OrderEventMessage
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse order event", requestID, err, nil)
		return fmt.Errorf("failed to parse order event: %w", err)
	}

	s.displayEvent(&event)

	s.logger.Debug("event_received", "Received order event", requestID, map[string]interface{}{
		"order":      event.OrderID,
		"event":      event.Event,
		"new_status": event.NewStatus,
	})

	return nil
}

// displayEvent prints a human-readable line for an order event
func (s *Subscriber) displayEvent(event *models.OrderEventMessage) {
	timestamp := event.Timestamp.Format("2006-01-02 15:04:05")

	var message string
	switch event.Event {
	case "submitted":
		message = fmt.Sprintf(
			"☕ [%s] Order %s for %s has been submitted and is being prepared.",
			timestamp, event.OrderID, event.User,
		)
	case "completed":
		message = fmt.Sprintf(
			"🎉 [%s] Order %s is ready! Enjoy, %s.",
			timestamp, event.OrderID, event.User,
		)
	default:
		message = fmt.Sprintf(
			"📋 [%s] Order %s changed from '%s' to '%s'.",
			timestamp, event.OrderID, event.OldStatus, event.NewStatus,
		)
	}

	fmt.Println(message)
}

// gracefulShutdown handles graceful shutdown of the subscriber
func (s *Subscriber) gracefulShutdown(requestID string) error {
	s.logger.Info("graceful_shutdown", "Starting graceful shutdown", requestID, nil)

	if s.consumer != nil {
		s.consumer.Close()
	}

	s.logger.Info("graceful_shutdown", "Graceful shutdown completed", requestID, nil)
	return nil
}
