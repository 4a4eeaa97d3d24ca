package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

const defaultCatalogRefresh = 5 * time.Second

// CatalogSource is a read-only, continuously refreshed view of the product catalog.
// Until the first successful read it is unresolved and catalog-driven operations fail
// with ErrCatalogLoading.
type CatalogSource struct {
	repo     repositories.ProductRepository
	interval time.Duration
	validate *validator.Validate

	mu          sync.RWMutex
	snapshot    []models.Product
	resolved    bool
	subscribers map[int]chan []models.Product
	nextSubID   int
}

// NewCatalogSource creates a CatalogSource that re-reads repo every interval once Run is called.
func NewCatalogSource(repo repositories.ProductRepository, interval time.Duration) *CatalogSource {
	if interval <= 0 {
		interval = defaultCatalogRefresh
	}
	return &CatalogSource{
		repo:        repo,
		interval:    interval,
		validate:    validator.New(),
		subscribers: make(map[int]chan []models.Product),
	}
}

// Run refreshes the catalog immediately and then on every tick until ctx is done.
func (s *CatalogSource) Run(ctx context.Context) {
	if err := s.Refresh(); err != nil {
		log.Printf("Catalog refresh failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(); err != nil {
				log.Printf("Catalog refresh failed: %v", err)
			}
		}
	}
}

// Refresh reads the repository and publishes the result as the latest snapshot.
// A failed read keeps the previous snapshot. Products that fail validation or carry a
// negative price are left out.
func (s *CatalogSource) Refresh() error {
	all, err := s.repo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	products := make([]models.Product, 0, len(all))
	for _, p := range all {
		if err := s.validate.Struct(p); err != nil {
			log.Printf("Skipping invalid catalog product %s: %v", p.ID, err)
			continue
		}
		if p.Price.IsNegative() {
			log.Printf("Skipping catalog product %s with negative price %s", p.ID, p.Price)
			continue
		}
		products = append(products, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = products
	s.resolved = true
	for _, ch := range s.subscribers {
		deliverLatest(ch, s.copySnapshot())
	}
	return nil
}

// Latest returns the current snapshot. ok is false while the catalog is unresolved.
func (s *CatalogSource) Latest() (products []models.Product, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.resolved {
		return nil, false
	}
	return s.copySnapshot(), true
}

// Lookup finds a product by id in the latest snapshot.
func (s *CatalogSource) Lookup(id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.resolved {
		return models.Product{}, ErrCatalogLoading
	}
	for _, p := range s.snapshot {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
}

// Subscribe returns a channel receiving every new snapshot, latest wins.
// When the catalog is already resolved the current snapshot is queued immediately.
// The returned func unsubscribes and closes the channel.
func (s *CatalogSource) Subscribe() (<-chan []models.Product, func()) {
	ch := make(chan []models.Product, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	if s.resolved {
		ch <- s.copySnapshot()
	}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *CatalogSource) copySnapshot() []models.Product {
	out := make([]models.Product, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// deliverLatest replaces any undelivered snapshot. Callers hold s.mu, so they are the only sender.
func deliverLatest(ch chan []models.Product, products []models.Product) {
	select {
	case <-ch:
	default:
	}
	ch <- products
}
