package order

import (
	"context"
	"errors"
	"testing"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

type fakeGateway struct {
	openID    string
	openErr   error
	addErr    error
	submitErr error
	lines     []models.OrderLine
	linesErr  error
	statuses  []models.OrderStatus
	statusErr error

	calls []string
}

func (f *fakeGateway) Open(ctx context.Context, userID string) (string, error) {
	f.calls = append(f.calls, "open")
	return f.openID, f.openErr
}

func (f *fakeGateway) AddItem(ctx context.Context, orderID, itemID string, qty int, displayItemName string, selections []models.SelectionWithNames) (*models.OrderLine, error) {
	f.calls = append(f.calls, "addItem")
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &models.OrderLine{ID: "echo", Item: itemID, Qty: qty}, nil
}

func (f *fakeGateway) Submit(ctx context.Context, orderID string) error {
	f.calls = append(f.calls, "submit")
	return f.submitErr
}

func (f *fakeGateway) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	f.calls = append(f.calls, "lines")
	return f.lines, f.linesErr
}

func (f *fakeGateway) Status(ctx context.Context, orderID string) ([]models.OrderStatus, error) {
	f.calls = append(f.calls, "status")
	return f.statuses, f.statusErr
}

func TestOpen_MirrorsServerOrder(t *testing.T) {
	gw := &fakeGateway{openID: "o42"}
	s := NewSession(gw, logger.New("test"))

	orderID, err := s.Open(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if orderID != "o42" {
		t.Fatalf("expected order id o42, got %q", orderID)
	}

	current, ok := s.Current()
	if !ok {
		t.Fatal("expected a current order")
	}
	if current.ID != "o42" || current.User != "u1" || current.Status != models.StatusPending {
		t.Fatalf("unexpected local order: %+v", current)
	}
	if len(current.Lines) != 0 {
		t.Fatalf("expected empty line cache, got %d lines", len(current.Lines))
	}
}

func TestOpen_FailureLeavesNoOrder(t *testing.T) {
	gw := &fakeGateway{openErr: errors.New("gateway down")}
	s := NewSession(gw, logger.New("test"))

	if _, err := s.Open(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.Current(); ok {
		t.Fatal("no partial order may be retained after a failed open")
	}
}

func TestAddItem_NoActiveOrderFailsBeforeNetwork(t *testing.T) {
	gw := &fakeGateway{}
	s := NewSession(gw, logger.New("test"))

	_, err := s.AddItem(context.Background(), "latte", 1, nil, "Latte", nil)
	if !errors.Is(err, ErrNoActiveOrder) {
		t.Fatalf("expected ErrNoActiveOrder, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("expected zero gateway calls, got %v", gw.calls)
	}
}

func TestAddItem_RefreshesLinesFromServer(t *testing.T) {
	gw := &fakeGateway{
		openID: "o42",
		lines: []models.OrderLine{
			{ID: "l1", Item: "latte", Qty: 1},
		},
	}
	s := NewSession(gw, logger.New("test"))

	if _, err := s.Open(context.Background(), "u1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	line, err := s.AddItem(context.Background(), "latte", 1, nil, "Latte", nil)
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if line == nil || line.ID != "echo" {
		t.Fatalf("expected the server echo returned, got %+v", line)
	}

	current, _ := s.Current()
	if len(current.Lines) != 1 || current.Lines[0].ID != "l1" {
		t.Fatalf("line cache must reflect the server refresh, got %+v", current.Lines)
	}

	want := []string{"open", "addItem", "lines"}
	if len(gw.calls) != len(want) {
		t.Fatalf("unexpected gateway calls: %v", gw.calls)
	}
	for i, call := range want {
		if gw.calls[i] != call {
			t.Fatalf("unexpected gateway calls: %v", gw.calls)
		}
	}
}

func TestAddItem_RefreshFailureKeepsStaleCache(t *testing.T) {
	gw := &fakeGateway{
		openID: "o42",
		lines:  []models.OrderLine{{ID: "l1", Item: "latte", Qty: 1}},
	}
	s := NewSession(gw, logger.New("test"))

	s.Open(context.Background(), "u1")
	if _, err := s.AddItem(context.Background(), "latte", 1, nil, "Latte", nil); err != nil {
		t.Fatalf("first AddItem failed: %v", err)
	}

	// Second add succeeds at the gateway but its refresh fails.
	gw.linesErr = errors.New("refresh down")
	if _, err := s.AddItem(context.Background(), "mocha", 2, nil, "Mocha", nil); err != nil {
		t.Fatalf("add must succeed even when the refresh fails, got %v", err)
	}

	current, _ := s.Current()
	if len(current.Lines) != 1 || current.Lines[0].ID != "l1" {
		t.Fatalf("failed refresh must leave the previous cache untouched, got %+v", current.Lines)
	}
}

func TestSubmit_LeavesStatusPending(t *testing.T) {
	gw := &fakeGateway{openID: "o42"}
	s := NewSession(gw, logger.New("test"))

	s.Open(context.Background(), "u1")
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	current, _ := s.Current()
	if current.Status != models.StatusPending {
		t.Fatalf("submit must leave local status pending, got %q", current.Status)
	}
}

func TestSubmit_NoActiveOrder(t *testing.T) {
	s := NewSession(&fakeGateway{}, logger.New("test"))
	if err := s.Submit(context.Background()); !errors.Is(err, ErrNoActiveOrder) {
		t.Fatalf("expected ErrNoActiveOrder, got %v", err)
	}
}

func TestStatus_DefaultsToPending(t *testing.T) {
	gw := &fakeGateway{openID: "o42", statusErr: errors.New("down")}
	s := NewSession(gw, logger.New("test"))

	if got := s.Status(context.Background()); got != models.StatusPending {
		t.Fatalf("expected pending without an order, got %q", got)
	}

	s.Open(context.Background(), "u1")
	if got := s.Status(context.Background()); got != models.StatusPending {
		t.Fatalf("expected pending on gateway failure, got %q", got)
	}

	gw.statusErr = nil
	gw.statuses = []models.OrderStatus{models.StatusCompleted}
	if got := s.Status(context.Background()); got != models.StatusCompleted {
		t.Fatalf("expected server status relayed, got %q", got)
	}
}

func TestClear_ThenAddItemFails(t *testing.T) {
	gw := &fakeGateway{openID: "o42"}
	s := NewSession(gw, logger.New("test"))

	s.Open(context.Background(), "u1")
	s.Clear()

	if _, ok := s.Current(); ok {
		t.Fatal("clear must discard the current order")
	}
	_, err := s.AddItem(context.Background(), "latte", 1, nil, "Latte", nil)
	if !errors.Is(err, ErrNoActiveOrder) {
		t.Fatalf("expected ErrNoActiveOrder after clear, got %v", err)
	}
}

func TestHasItems(t *testing.T) {
	gw := &fakeGateway{openID: "o42"}
	s := NewSession(gw, logger.New("test"))

	if s.HasItems() {
		t.Fatal("no order, no items")
	}
	s.Open(context.Background(), "u1")
	if s.HasItems() {
		t.Fatal("fresh order must have no items")
	}
	gw.lines = []models.OrderLine{{ID: "l1"}}
	s.RefreshLines(context.Background())
	if !s.HasItems() {
		t.Fatal("expected items after refresh")
	}
}
