package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"storefront/internal/model"
)

// MemoryStore keeps users and products in process memory. It follows the
// same contract as the GORM repositories, including gorm.ErrRecordNotFound
// and gorm.ErrDuplicatedKey, and backs local runs and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uint]model.User
	products   map[uint]model.Product
	nextUserID uint
	nextProdID uint
	now        func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]model.User),
		products: make(map[uint]model.Product),
		now:      time.Now,
	}
}

// Users returns a UserRepository view of the store.
func (s *MemoryStore) Users() UserRepository {
	return memoryUsers{s}
}

// Products returns a ProductRepository view of the store.
func (s *MemoryStore) Products() ProductRepository {
	return memoryProducts{s}
}

type memoryUsers struct {
	s *MemoryStore
}

var _ UserRepository = memoryUsers{}

func (r memoryUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memoryUsers) UpdatePasswordHash(_ context.Context, id uint, hash string) error {
	return r.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (r memoryUsers) UpdateRole(_ context.Context, id uint, role model.Role) error {
	return r.update(id, func(u *model.User) { u.Role = role })
}

func (r memoryUsers) update(id uint, fn func(*model.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

type memoryProducts struct {
	s *MemoryStore
}

var _ ProductRepository = memoryProducts{}

func (r memoryProducts) List(_ context.Context) ([]model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return products, nil
}

func (r memoryProducts) FindByID(_ context.Context, id uint) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memoryProducts) Create(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextProdID++
	product.ID = r.s.nextProdID
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.s.now()
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r memoryProducts) Update(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.products[product.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.CreatedAt = existing.CreatedAt
	r.s.products[product.ID] = *product
	return nil
}

func (r memoryProducts) Delete(_ context.Context, id uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return false, nil
	}
	delete(r.s.products, id)
	return true, nil
}
