package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type roomMessage struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

type mealMessage struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CatalogConsumer keeps the local room and meal reference data in step with
// the property-management feed. Routing keys are "room.<event>" and
// "meal.<event>".
type CatalogConsumer struct {
	rooms repository.RoomRepository
	meals repository.MealRepository
	log   *zap.Logger
}

func NewCatalogConsumer(rooms repository.RoomRepository, meals repository.MealRepository, log *zap.Logger) *CatalogConsumer {
	return &CatalogConsumer{rooms: rooms, meals: meals, log: log}
}

// Start handles messages until msgs is closed.
func (cc *CatalogConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(ctx, msg)
		}
		cc.log.Info("catalog_consumer_stopped")
	}()
}

func (cc *CatalogConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	kind, _, _ := strings.Cut(msg.RoutingKey, ".")

	var err error
	switch kind {
	case "room":
		err = cc.upsertRoom(ctx, msg.Body)
	case "meal":
		err = cc.upsertMeal(ctx, msg.Body)
	default:
		cc.log.Warn("catalog_message_unroutable", zap.String("routing_key", msg.RoutingKey))
		_ = msg.Nack(false, false)
		return
	}

	var poison *poisonError
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.As(err, &poison):
		cc.log.Warn("catalog_message_rejected", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, false)
	default:
		cc.log.Error("catalog_upsert_failed", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, true) // requeue
	}
}

func (cc *CatalogConsumer) upsertRoom(ctx context.Context, body []byte) error {
	var m roomMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return &poisonError{err: fmt.Errorf("unmarshal room: %w", err)}
	}
	if m.ID == 0 || m.Name == "" || m.PricePerNight.IsNegative() {
		return &poisonError{err: fmt.Errorf("invalid room %d", m.ID)}
	}
	// IsAvailable only applies to newly inserted rooms
	room := &models.Room{ID: m.ID, Name: m.Name, PricePerNight: m.PricePerNight.Round(2), IsAvailable: true}
	if err := cc.rooms.UpsertReference(ctx, room); err != nil {
		return err
	}
	cc.log.Info("catalog_room_synced", zap.Uint("room_id", m.ID))
	return nil
}

func (cc *CatalogConsumer) upsertMeal(ctx context.Context, body []byte) error {
	var m mealMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return &poisonError{err: fmt.Errorf("unmarshal meal: %w", err)}
	}
	if m.ID == 0 || m.Name == "" || m.Price.IsNegative() {
		return &poisonError{err: fmt.Errorf("invalid meal %d", m.ID)}
	}
	meal := &models.Meal{ID: m.ID, Name: m.Name, Price: m.Price.Round(2)}
	if err := cc.meals.Upsert(ctx, meal); err != nil {
		return err
	}
	cc.log.Info("catalog_meal_synced", zap.Uint("meal_id", m.ID))
	return nil
}

// poisonError marks a message that will never succeed and must not be
// requeued.
type poisonError struct{ err error }

func (e *poisonError) Error() string { return e.err.Error() }
func (e *poisonError) Unwrap() error { return e.err }

