package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type groceryRepo struct{ s *Store }

func (r *groceryRepo) Create(_ context.Context, item *domain.GroceryItem) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.insertLocked(item, time.Now().UTC())
	return item.ID, nil
}

func (r *groceryRepo) CreateMany(_ context.Context, items []domain.GroceryItem) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for i := range items {
		r.insertLocked(&items[i], now)
	}
	return len(items), nil
}

func (r *groceryRepo) insertLocked(item *domain.GroceryItem, now time.Time) {
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.groceries[item.ID] = *item
}

func (r *groceryRepo) GetByID(_ context.Context, id, userID primitive.ObjectID) (*domain.GroceryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groceries[id]
	if !ok || g.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func subcategoryOf(g domain.GroceryItem) string {
	if g.Subcategory == nil {
		return ""
	}
	return string(*g.Subcategory)
}

func (r *groceryRepo) List(_ context.Context, userID primitive.ObjectID, f repository.GroceryFilter) ([]domain.GroceryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	items := []domain.GroceryItem{}
	for _, g := range r.s.groceries {
		switch {
		case g.UserID != userID:
			continue
		case f.Category != "" && g.Category != f.Category:
			continue
		case f.Subcategory != "" && subcategoryOf(g) != string(f.Subcategory):
			continue
		case f.Difficulty != "" && g.Difficulty != f.Difficulty:
			continue
		case search != "" && !strings.Contains(strings.ToLower(g.Name), search):
			continue
		}
		items = append(items, g)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if sa, sb := subcategoryOf(a), subcategoryOf(b); sa != sb {
			return sa < sb
		}
		return a.Name < b.Name
	})
	return items, nil
}

func (r *groceryRepo) Update(_ context.Context, item *domain.GroceryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.groceries[item.ID]
	if !ok || existing.UserID != item.UserID {
		return repository.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	r.s.groceries[item.ID] = *item
	return nil
}

func (r *groceryRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groceries[id]
	if !ok || g.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.groceries, id)
	return nil
}

func (r *groceryRepo) DeleteAll(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, g := range r.s.groceries {
		if g.UserID == userID {
			delete(r.s.groceries, id)
			n++
		}
	}
	return n, nil
}

func (r *groceryRepo) Stats(_ context.Context, userID primitive.ObjectID) (*domain.GroceryStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &domain.GroceryStats{
		ByCategory:    map[domain.GroceryCategory]int{},
		BySubcategory: map[domain.GrocerySubcategory]int{},
	}
	for _, g := range r.s.groceries {
		if g.UserID != userID {
			continue
		}
		stats.Total++
		stats.ByCategory[g.Category]++
		if g.Subcategory != nil {
			stats.BySubcategory[*g.Subcategory]++
		}
	}
	return stats, nil
}

type chatRepo struct{ s *Store }

func (r *chatRepo) Create(_ context.Context, msg *domain.ChatMessage) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	r.s.chat = append(r.s.chat, *msg)
	return msg.ID, nil
}

func (r *chatRepo) ListRecent(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	messages := []domain.ChatMessage{}
	for _, m := range r.s.chat {
		if m.UserID == userID {
			messages = append(messages, m)
		}
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}
