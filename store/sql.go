package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"minimarket/domain"
	"minimarket/util"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLStore is a database/sql backend for the catalog, orders and accounts
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	cfg     config
}

var (
	_ domain.CatalogStore = (*SQLStore)(nil)
	_ domain.OrderStore   = (*SQLStore)(nil)
	_ domain.UserStore    = (*SQLStore)(nil)
)

// OpenSQLite opens (creating if needed) a sqlite database and migrates it.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	return openAndMigrate(ctx, db, DialectSQLite, opts)
}

// OpenPostgres connects to postgres and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return openAndMigrate(ctx, db, DialectPostgres, opts)
}

func openAndMigrate(ctx context.Context, db *sql.DB, dialect Dialect, opts []Option) (*SQLStore, error) {
	s := NewSQLStore(db, dialect, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database. Call Migrate before first use on a fresh database.
func NewSQLStore(db *sql.DB, dialect Dialect, opts ...Option) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, cfg: newConfig(opts)}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	seq := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		seq = "seq BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
		` + seq + `,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		price TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		stock INTEGER NOT NULL DEFAULT 0,
		unit TEXT NOT NULL DEFAULT 'lb'
	)`,
		`CREATE TABLE IF NOT EXISTS orders (
		` + seq + `,
		id TEXT NOT NULL UNIQUE,
		owner_id TEXT,
		lines TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		tax TEXT NOT NULL,
		discount TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS orders_owner_idx ON orders (owner_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) productExists(ctx context.Context, q querier, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, s.rebind(`SELECT COUNT(1) FROM products WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) insertProduct(ctx context.Context, q querier, p domain.Product) error {
	_, err := q.ExecContext(ctx, s.rebind(`INSERT INTO products (id, name, category, price, image, description, stock, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, string(p.Category), p.Price.String(), p.Image, p.Description, p.Stock, p.Unit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, product domain.Product) error {
	product = product.WithDefaults()
	if err := domain.ValidateProduct(product); err != nil {
		return err
	}
	exists, err := s.productExists(ctx, s.db, product.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewDuplicateProductError(product.ID)
	}
	return s.insertProduct(ctx, s.db, product)
}

const productColumns = `id, name, category, price, image, description, stock, unit`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		category string
		price    string
	)
	if err := row.Scan(&p.ID, &p.Name, &category, &price, &p.Image, &p.Description, &p.Stock, &p.Unit); err != nil {
		return domain.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: bad price %q: %w", p.ID, price, err)
	}
	p.Category = domain.Category(category)
	p.Price = d
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.NewProductNotFoundError(id)
	}
	return p, err
}

func (s *SQLStore) Update(ctx context.Context, id string, product domain.Product) error {
	product.ID = id
	product = product.WithDefaults()
	if err := domain.ValidateProduct(product); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE products
		SET name = ?, category = ?, price = ?, image = ?, description = ?, stock = ?, unit = ?
		WHERE id = ?`),
		product.Name, string(product.Category), product.Price.String(), product.Image, product.Description, product.Stock, product.Unit, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewProductNotFoundError(id)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewProductNotFoundError(id)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var all []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return applyFilter(all, filter), nil
}

// BulkImport inserts the valid, non-duplicate products in one transaction.
func (s *SQLStore) BulkImport(ctx context.Context, products []domain.Product) error {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, p := range products {
		if !valid[i] {
			continue
		}
		exists, err := s.productExists(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if exists {
			collected = append(collected, fmt.Errorf("id=%s: %w", p.ID, domain.NewDuplicateProductError(p.ID)))
			continue
		}
		if err := s.insertProduct(ctx, tx, p.WithDefaults()); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return errors.Join(collected...)
}

func (s *SQLStore) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.Order, error) {
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

	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return domain.Order{}, err
	}
	var owner sql.NullString
	if o.OwnerID != nil {
		owner = sql.NullString{String: *o.OwnerID, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO orders (id, owner_id, lines, subtotal, tax, discount, total, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID, owner, string(lines), o.Subtotal.String(), o.Tax.String(), o.Discount.String(), o.Total.String(), string(o.Status), o.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return o, nil
}

const orderColumns = `id, owner_id, lines, subtotal, tax, discount, total, status, created_at`

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o                              domain.Order
		owner                          sql.NullString
		lines, status, createdAt       string
		subtotal, tax, discount, total string
	)
	if err := row.Scan(&o.ID, &owner, &lines, &subtotal, &tax, &discount, &total, &status, &createdAt); err != nil {
		return domain.Order{}, err
	}
	if owner.Valid {
		id := owner.String
		o.OwnerID = &id
	}
	if err := json.Unmarshal([]byte(lines), &o.Lines); err != nil {
		return domain.Order{}, fmt.Errorf("order %s: bad lines: %w", o.ID, err)
	}
	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{{&o.Subtotal, subtotal}, {&o.Tax, tax}, {&o.Discount, discount}, {&o.Total, total}}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.src)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s: bad amount %q: %w", o.ID, a.src, err)
		}
		*a.dst = d
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: bad timestamp: %w", o.ID, err)
	}
	o.CreatedAt = ts
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (s *SQLStore) ListOrdersForIdentity(ctx context.Context, identityID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+orderColumns+` FROM orders
		WHERE owner_id = ?
		ORDER BY created_at DESC, seq ASC`), identityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user domain.User) error {
	if user.ID == "" || user.Email == "" {
		return errors.New("user id and email are required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.cfg.now()
	}

	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(1) FROM users WHERE email = ?`), user.Email).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return domain.NewDuplicateEmailError(user.Email)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`), email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NewNotFoundError("user", email)
	}
	if err != nil {
		return domain.User{}, err
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: bad timestamp: %w", u.ID, err)
	}
	u.CreatedAt = ts
	return u, nil
}
