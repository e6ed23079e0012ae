package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// MockEventStore is a mock implementation of domain.EventStore for testing.
type MockEventStore struct {
	mu              sync.Mutex
	PublishedEvents []domain.PublishedEvent
	RecentResult    []domain.PublishedEvent
	BetweenResult   []domain.PublishedEvent
	PublishErr      error
	RecentErr       error
	BetweenErr      error
	Now             time.Time
}

func (m *MockEventStore) Publish(ctx context.Context, events []domain.NormalizedEvent) ([]domain.PublishedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return nil, m.PublishErr
	}
	createdAt := m.Now
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	published := make([]domain.PublishedEvent, len(events))
	for i, event := range events {
		published[i] = domain.PublishedEvent{
			NormalizedEvent: event,
			ID:              fmt.Sprintf("event-%d", len(m.PublishedEvents)+i+1),
			CreatedAt:       createdAt,
		}
	}
	m.PublishedEvents = append(m.PublishedEvents, published...)
	return published, nil
}

func (m *MockEventStore) RecentEvents(ctx context.Context, since time.Time) ([]domain.PublishedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	return m.RecentResult, nil
}

func (m *MockEventStore) EventsBetween(ctx context.Context, from, to time.Time) ([]domain.PublishedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BetweenErr != nil {
		return nil, m.BetweenErr
	}
	return m.BetweenResult, nil
}

// MockRuleStore is a mock implementation of domain.RuleStore for testing.
type MockRuleStore struct {
	mu           sync.Mutex
	Rules        []domain.IngestionRule
	RulesErr     error
	CreateErr    error
	UpdateErr    error
	DeleteErr    error
	DeletedIDs   []string
	CreatedRules []domain.IngestionRule
}

func (m *MockRuleStore) RulesForWorkspace(ctx context.Context, workspaceID string) ([]domain.IngestionRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RulesErr != nil {
		return nil, m.RulesErr
	}
	return m.Rules, nil
}

func (m *MockRuleStore) CreateRule(ctx context.Context, rule *domain.IngestionRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.CreatedRules = append(m.CreatedRules, *rule)
	m.Rules = append(m.Rules, *rule)
	return nil
}

func (m *MockRuleStore) UpdateRule(ctx context.Context, rule *domain.IngestionRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.Rules {
		if m.Rules[i].ID == rule.ID {
			m.Rules[i] = *rule
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockRuleStore) DeleteRule(ctx context.Context, workspaceID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedIDs = append(m.DeletedIDs, id)
	for i := range m.Rules {
		if m.Rules[i].ID == id {
			m.Rules = append(m.Rules[:i], m.Rules[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockAlertStore is a mock implementation of domain.AlertStore for testing.
type MockAlertStore struct {
	mu          sync.Mutex
	SavedAlerts []domain.Alert
	ListResult  []domain.Alert
	AckedIDs    []string
	DeletedIDs  []string
	SaveErr     error
	ListErr     error
	AckErr      error
	DeleteErr   error
}

func (m *MockAlertStore) SaveAlerts(ctx context.Context, alerts []domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SavedAlerts = append(m.SavedAlerts, alerts...)
	return nil
}

func (m *MockAlertStore) ListAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListResult, nil
}

func (m *MockAlertStore) Acknowledge(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedIDs = append(m.AckedIDs, id)
	return nil
}

func (m *MockAlertStore) DeleteAlert(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedIDs = append(m.DeletedIDs, id)
	return nil
}

// MockSubscriptionStore is a mock implementation of domain.SubscriptionStore for testing.
type MockSubscriptionStore struct {
	mu            sync.Mutex
	Subscriptions map[string]*domain.Subscription
	GetErr        error
	SaveErr       error
	DeleteErr     error
}

func (m *MockSubscriptionStore) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	sub, ok := m.Subscriptions[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (m *MockSubscriptionStore) SaveSubscription(ctx context.Context, sub *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Subscriptions == nil {
		m.Subscriptions = make(map[string]*domain.Subscription)
	}
	m.Subscriptions[sub.UserID] = sub
	return nil
}

func (m *MockSubscriptionStore) DeleteSubscription(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Subscriptions, userID)
	return nil
}

// MockMarkerStore is a mock implementation of domain.MarkerStore for testing.
type MockMarkerStore struct {
	mu       sync.Mutex
	Markers  map[string]*domain.Marker
	GetErr   error
	TouchErr error
}

func (m *MockMarkerStore) GetMarker(ctx context.Context, userID string) (*domain.Marker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Markers[userID], nil
}

func (m *MockMarkerStore) Touch(ctx context.Context, userID string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TouchErr != nil {
		return m.TouchErr
	}
	if m.Markers == nil {
		m.Markers = make(map[string]*domain.Marker)
	}
	m.Markers[userID] = &domain.Marker{UserID: userID, LastSeenAt: seenAt}
	return nil
}

// MockBroadcaster is a mock implementation of domain.Broadcaster for testing.
type MockBroadcaster struct {
	mu         sync.Mutex
	Broadcasts [][]domain.PublishedEvent
}

func (m *MockBroadcaster) Broadcast(ctx context.Context, events []domain.PublishedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Broadcasts = append(m.Broadcasts, events)
}

// Batches returns a copy of the broadcast batches seen so far.
func (m *MockBroadcaster) Batches() [][]domain.PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]domain.PublishedEvent, len(m.Broadcasts))
	copy(out, m.Broadcasts)
	return out
}
