package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"minimarket/domain"
	"minimarket/util"
)

// InMemoryStore is a thread-safe in-memory backend for the catalog, orders and accounts
type InMemoryStore struct {
	mu       sync.RWMutex
	cfg      config
	products map[string]domain.Product
	order    []string // product ids in catalog order
	orders   []domain.Order
	users    map[string]domain.User // keyed by email
}

// NewInMemoryStore constructs a new InMemoryStore
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		cfg:      newConfig(opts),
		products: make(map[string]domain.Product),
		users:    make(map[string]domain.User),
	}
}

// compile-time assertions that InMemoryStore implements the domain stores
var (
	_ domain.CatalogStore = (*InMemoryStore)(nil)
	_ domain.OrderStore   = (*InMemoryStore)(nil)
	_ domain.UserStore    = (*InMemoryStore)(nil)
)

func (s *InMemoryStore) Create(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	product = product.WithDefaults()
	if err := domain.ValidateProduct(product); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(product)
}

func (s *InMemoryStore) insertLocked(product domain.Product) error {
	if _, exists := s.products[product.ID]; exists {
		return domain.NewDuplicateProductError(product.ID)
	}
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.NewProductNotFoundError(id)
	}
	return p, nil
}

func (s *InMemoryStore) Update(ctx context.Context, id string, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	product.ID = id
	product = product.WithDefaults()
	if err := domain.ValidateProduct(product); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.NewProductNotFoundError(id)
	}
	s.products[id] = product
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.NewProductNotFoundError(id)
	}
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	all := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.products[id])
	}
	s.mu.RUnlock()

	return applyFilter(all, filter), nil
}

// BulkImport validates products on a worker pool, then inserts the valid ones
// in input order. Every rejected product contributes to the joined error.
func (s *InMemoryStore) BulkImport(ctx context.Context, products []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	valid, collected := validateConcurrently(ctx, products)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range products {
		if !valid[i] {
			continue
		}
		if err := s.insertLocked(p.WithDefaults()); err != nil {
			collected = append(collected, fmt.Errorf("id=%s: %w", p.ID, err))
		}
	}
	return errors.Join(collected...)
}

// validateConcurrently checks every product with up to maxWorkers goroutines.
// valid[i] reports whether products[i] passed.
func validateConcurrently(ctx context.Context, products []domain.Product) ([]bool, []error) {
	const maxWorkers = 10

	type result struct {
		index int
		err   error
	}

	jobs := make(chan int)
	results := make(chan result, len(products))

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case i, ok := <-jobs:
				if !ok {
					return
				}
				results <- result{index: i, err: domain.ValidateProduct(products[i].WithDefaults())}
			}
		}
	}

	nWorkers := maxWorkers
	if len(products) < nWorkers {
		nWorkers = len(products)
	}
	wg.Add(nWorkers)
	for i := 0; i < nWorkers; i++ {
		go worker()
	}

	go func() {
		defer close(jobs)
		for i := range products {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	close(results)

	valid := make([]bool, len(products))
	var errs []error
	for res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("id=%s: %w", products[res.index].ID, res.err))
			continue
		}
		valid[res.index] = true
	}
	return valid, errs
}

// CreateOrder stores a confirmed order built from payload.
func (s *InMemoryStore) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	if err := validatePayload(payload); err != nil {
		return domain.Order{}, err
	}

	now := s.cfg.now()
	o := copyOrder(domain.Order{
		ID:        util.NewOrderID(now),
		OwnerID:   payload.OwnerID,
		Lines:     payload.Lines,
		Totals:    payload.Totals,
		Status:    domain.StatusConfirmed,
		CreatedAt: now,
	})

	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()

	return copyOrder(o), nil
}

func (s *InMemoryStore) ListOrdersForIdentity(ctx context.Context, identityID string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.OwnedBy(identityID) {
			out = append(out, copyOrder(o))
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			found := copyOrder(o)
			return &found, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) CreateUser(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.ID == "" || user.Email == "" {
		return errors.New("user id and email are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return domain.NewDuplicateEmailError(user.Email)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.cfg.now()
	}
	s.users[user.Email] = user
	return nil
}

func (s *InMemoryStore) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.NewNotFoundError("user", email)
	}
	return u, nil
}

// Close is a no-op for the in-memory backend
func (s *InMemoryStore) Close() error {
	return nil
}

// document is the serialized form of a whole store
type document struct {
	Products []domain.Product `json:"products"`
	Orders   []domain.Order   `json:"orders"`
	Users    []domain.User    `json:"users"`
}

func (s *InMemoryStore) export() document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := document{
		Products: make([]domain.Product, 0, len(s.order)),
		Orders:   make([]domain.Order, 0, len(s.orders)),
		Users:    make([]domain.User, 0, len(s.users)),
	}
	for _, id := range s.order {
		doc.Products = append(doc.Products, s.products[id])
	}
	for _, o := range s.orders {
		doc.Orders = append(doc.Orders, copyOrder(o))
	}
	for _, u := range s.users {
		doc.Users = append(doc.Users, u)
	}
	// stable order for deterministic files
	sort.Slice(doc.Users, func(i, j int) bool { return doc.Users[i].Email < doc.Users[j].Email })
	return doc
}

func (s *InMemoryStore) load(doc document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(doc)
}

// replace discards the current contents and loads doc in their place
func (s *InMemoryStore) replace(doc document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[string]domain.Product, len(doc.Products))
	s.order = nil
	s.orders = nil
	s.users = make(map[string]domain.User, len(doc.Users))
	s.loadLocked(doc)
}

func (s *InMemoryStore) loadLocked(doc document) {
	for _, p := range doc.Products {
		if _, exists := s.products[p.ID]; exists || p.ID == "" {
			continue
		}
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	for _, o := range doc.Orders {
		s.orders = append(s.orders, copyOrder(o))
	}
	for _, u := range doc.Users {
		s.users[u.Email] = u
	}
}
