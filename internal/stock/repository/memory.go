package repository

import (
	"context"
	"sync"
	"time"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/internal/stock/dto"
	"github.com/google/uuid"
)

// MemoryRepository implements the variant stock store without a database,
// with the same semantics as the Postgres implementation: per-variant
// serialization, all-or-nothing delta batches, aggregates consistent with
// variant cells. Used by tests and local development.
type MemoryRepository struct {
	mu         sync.Mutex
	cellLocks  map[string]*sync.Mutex
	quantities map[string]int64
	declared   map[string]map[string]struct{} // productID -> set of variant keys
	movements  []model.StockMovement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		cellLocks:  make(map[string]*sync.Mutex),
		quantities: make(map[string]int64),
		declared:   make(map[string]map[string]struct{}),
	}
}

// Seed declares a variant and sets its quantity directly. Test helper.
func (r *MemoryRepository) Seed(productID, color, size string, qty int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stock.VariantKey(productID, color, size)
	r.declare(productID, key)
	r.quantities[key] = qty
}

func (r *MemoryRepository) declare(productID, key string) {
	if r.declared[productID] == nil {
		r.declared[productID] = make(map[string]struct{})
	}
	r.declared[productID][key] = struct{}{}
	if _, ok := r.quantities[key]; !ok {
		r.quantities[key] = 0
	}
}

func (r *MemoryRepository) GetQuantity(ctx context.Context, productID, color, size string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quantities[stock.VariantKey(productID, color, size)], nil
}

func (r *MemoryRepository) GetAggregate(ctx context.Context, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for key := range r.declared[productID] {
		total += r.quantities[key]
	}
	return total, nil
}

func (r *MemoryRepository) ListByProduct(ctx context.Context, productID string) ([]model.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variants := make([]model.Variant, 0, len(r.declared[productID]))
	for key := range r.declared[productID] {
		productID, color, size := splitKey(key)
		variants = append(variants, model.Variant{
			ProductID: productID,
			Color:     color,
			Size:      size,
			Quantity:  r.quantities[key],
		})
	}
	return variants, nil
}

func (r *MemoryRepository) DeclareVariants(ctx context.Context, productID string, colors, sizes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, color := range colors {
		for _, size := range sizes {
			r.declare(productID, stock.VariantKey(productID, color, size))
		}
	}
	return nil
}

func (r *MemoryRepository) ApplyDeltas(ctx context.Context, deltas []stock.Delta, ref *stock.MovementRef, attach stock.AttachFn) error {
	if len(deltas) == 0 {
		return nil
	}

	sorted := make([]stock.Delta, len(deltas))
	copy(sorted, deltas)
	stock.SortDeltas(sorted)

	// Grab the per-cell mutexes under mu, then lock them in sorted key
	// order. Duplicate keys in one batch share a single lock acquisition.
	r.mu.Lock()
	locks := make([]*sync.Mutex, 0, len(sorted))
	prevKey := ""
	for _, d := range sorted {
		key := stock.VariantKey(d.ProductID, d.Color, d.Size)
		if key == prevKey {
			continue
		}
		prevKey = key
		if r.cellLocks[key] == nil {
			r.cellLocks[key] = &sync.Mutex{}
		}
		locks = append(locks, r.cellLocks[key])
	}
	r.mu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate every line before touching any cell. Deltas repeated against
	// one key accumulate during validation.
	pending := make(map[string]int64, len(sorted))
	for _, d := range sorted {
		key := stock.VariantKey(d.ProductID, d.Color, d.Size)
		if _, ok := r.declared[d.ProductID][key]; !ok {
			return &stock.UnknownVariantError{ProductID: d.ProductID, Color: d.Color, Size: d.Size}
		}
		available := r.quantities[key] + pending[key]
		if available+d.Delta < 0 {
			return &stock.InsufficientStockError{
				ProductID: d.ProductID,
				Color:     d.Color,
				Size:      d.Size,
				Requested: -d.Delta,
				Available: available,
			}
		}
		pending[key] += d.Delta
	}

	now := time.Now()
	for _, d := range sorted {
		key := stock.VariantKey(d.ProductID, d.Color, d.Size)
		before := r.quantities[key]
		r.quantities[key] = before + d.Delta
		r.movements = append(r.movements, newMovement(&d, ref, before, before+d.Delta, now))
	}

	if attach != nil {
		if err := attach(ctx, nil); err != nil {
			// Compensate: the store cannot commit halfway, so undo the
			// deltas before surfacing the attach failure.
			for _, d := range sorted {
				key := stock.VariantKey(d.ProductID, d.Color, d.Size)
				r.quantities[key] -= d.Delta
			}
			r.movements = r.movements[:len(r.movements)-len(sorted)]
			return err
		}
	}
	return nil
}

func (r *MemoryRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.StockMovement
	for _, m := range r.movements {
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.MovementType != "" && m.MovementType != f.MovementType {
			continue
		}
		items = append(items, m)
	}
	return items, len(items), nil
}

func newMovement(d *stock.Delta, ref *stock.MovementRef, before, after int64, now time.Time) model.StockMovement {
	m := model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      d.ProductID,
		Color:          d.Color,
		Size:           d.Size,
		MovementType:   "adjustment",
		QuantityChange: d.Delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		CreatedAt:      now,
	}
	if ref != nil {
		if ref.Type != "" {
			m.MovementType = ref.Type
		}
		if ref.ReferenceType != "" {
			rt := ref.ReferenceType
			m.ReferenceType = &rt
		}
		if ref.ReferenceID != "" {
			ri := ref.ReferenceID
			m.ReferenceID = &ri
		}
		m.Notes = ref.Notes
		m.CreatedBy = ref.CreatedBy
	}
	return m
}

func splitKey(key string) (productID, color, size string) {
	first := -1
	last := -1
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 || first == last {
		return key, "", ""
	}
	return key[:first], key[first+1 : last], key[last+1:]
}
