package services

import (
	"context"
	"sync"
	"testing"

	"github.com/junaidrashid-git/storefront-api/config"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) last(eventType string) (events.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == eventType {
			return p.events[i], true
		}
	}
	return events.Event{}, false
}

type recordingNotifier struct {
	mu       sync.Mutex
	watching map[string]bool
	pushed   map[string][]any
}

func newRecordingNotifier(sessions ...string) *recordingNotifier {
	n := &recordingNotifier{watching: map[string]bool{}, pushed: map[string][]any{}}
	for _, s := range sessions {
		n.watching[s] = true
	}
	return n
}

func (n *recordingNotifier) Watching(sessionID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.watching[sessionID]
}

func (n *recordingNotifier) Publish(sessionID string, v any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushed[sessionID] = append(n.pushed[sessionID], v)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func seedCategory(t *testing.T, repo *repository.Repository, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, repo.CreateCategory(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, repo *repository.Repository, categoryID uint, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, CategoryID: categoryID}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	return p
}

func productNames(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}
