package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventaris/internal/db"
	"github.com/erazemk/inventaris/internal/model"
	"github.com/erazemk/inventaris/internal/money"
)

var (
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("item not found")
	// ErrNoImage is returned when an item exists but has no image attached.
	ErrNoImage = errors.New("item has no image")
	// ErrUnavailable is returned when the database cannot be reached in time.
	ErrUnavailable = errors.New("store unavailable")
)

// DefaultTimeout bounds a single store operation, including the wait for a
// pooled connection.
const DefaultTimeout = 2 * time.Second

const itemColumns = `id, name, category, stock, price, image IS NOT NULL AS has_image, created_at, updated_at`

// ItemStore reads and writes the items table.
type ItemStore struct {
	db      *db.DB
	timeout time.Duration
	now     func() time.Time
}

// Option configures an ItemStore.
type Option func(*ItemStore)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *ItemStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *ItemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewItemStore returns a store backed by database.
func NewItemStore(database *db.DB, opts ...Option) *ItemStore {
	s := &ItemStore{
		db:      database,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all items, newest first. A non-empty filter keeps items whose
// name or category contains it, ignoring case.
func (s *ItemStore) List(ctx context.Context, filter string) ([]model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if filter != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter)) + "%"
		query += ` WHERE LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	items := []model.Item{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, wrapErr("listing items", err)
	}
	for i := range items {
		decorate(&items[i])
	}
	return items, nil
}

// Get returns an item by ID.
func (s *ItemStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item := &model.Item{}
	err := s.db.GetContext(ctx, item,
		s.db.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("getting item", err)
	}
	decorate(item)
	return item, nil
}

// Create inserts a new item and returns the stored row.
func (s *ItemStore) Create(ctx context.Context, f model.ItemFields) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.timestamp()
	item := &model.Item{}
	err := s.db.GetContext(ctx, item, s.db.Rebind(
		`INSERT INTO items (name, category, stock, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+itemColumns),
		f.Name, f.Category, f.Stock, f.Price, now, now,
	)
	if err != nil {
		return nil, wrapErr("creating item", err)
	}
	decorate(item)
	return item, nil
}

// Update replaces all editable fields of an item and refreshes updated_at.
func (s *ItemStore) Update(ctx context.Context, id int64, f model.ItemFields) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item := &model.Item{}
	err := s.db.GetContext(ctx, item, s.db.Rebind(
		`UPDATE items SET name = ?, category = ?, stock = ?, price = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+itemColumns),
		f.Name, f.Category, f.Stock, f.Price, s.timestamp(), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("updating item", err)
	}
	decorate(item)
	return item, nil
}

// Delete permanently removes an item.
func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return wrapErr("deleting item", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr("deleting item", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates counts and total inventory value over all items. The value
// is summed as an exact decimal in Go, since SQLite would overflow into REAL.
func (s *ItemStore) Stats(ctx context.Context) (*model.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryxContext(ctx, `SELECT category, stock, price FROM items`)
	if err != nil {
		return nil, wrapErr("getting stats", err)
	}
	defer rows.Close()

	stats := &model.Stats{}
	categories := make(map[string]struct{})
	total := decimal.Zero
	for rows.Next() {
		var row struct {
			Category string      `db:"category"`
			Stock    int64       `db:"stock"`
			Price    model.Price `db:"price"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, wrapErr("getting stats", err)
		}

		stats.TotalItems++
		categories[row.Category] = struct{}{}
		switch {
		case row.Stock > 0:
			stats.InStock++
		case row.Stock == 0:
			stats.OutOfStock++
		}
		total = total.Add(row.Price.Mul(decimal.NewFromInt(row.Stock)))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("getting stats", err)
	}

	stats.TotalCategories = int64(len(categories))
	stats.TotalInventoryValue = model.Price{Decimal: total.Round(2)}
	stats.TotalInventoryValueDisplay = money.Rupiah(stats.TotalInventoryValue.Decimal)
	return stats, nil
}

// Count returns the number of items.
func (s *ItemStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM items`); err != nil {
		return 0, wrapErr("counting items", err)
	}
	return n, nil
}

// SetImage stores an item's image data.
func (s *ItemStore) SetImage(ctx context.Context, id int64, image []byte, mime string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE items SET image = ?, image_mime = ?, updated_at = ? WHERE id = ?`),
		image, mime, s.timestamp(), id,
	)
	if err != nil {
		return wrapErr("setting item image", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr("setting item image", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Image returns an item's image data and MIME type.
func (s *ItemStore) Image(ctx context.Context, id int64) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var image []byte
	var mime sql.NullString
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT image, image_mime FROM items WHERE id = ?`), id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", wrapErr("getting item image", err)
	}
	if image == nil {
		return nil, "", ErrNoImage
	}
	return image, mime.String, nil
}

// Ping checks that the database answers a trivial query.
func (s *ItemStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var one int
	if err := s.db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		return wrapErr("pinging database", err)
	}
	return nil
}

// timestamp returns the current time at the precision both dialects store.
func (s *ItemStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func decorate(item *model.Item) {
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	item.PriceDisplay = money.Rupiah(item.Price.Decimal)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
