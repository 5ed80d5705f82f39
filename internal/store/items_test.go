package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventaris/internal/db"
	"github.com/erazemk/inventaris/internal/model"
)

// fakeClock returns a clock that advances by one second on every call.
func fakeClock() func() time.Time {
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *ItemStore {
	t.Helper()
	return NewItemStore(db.NewTestDB(t), WithClock(fakeClock()))
}

func fields(name, category string, stock int64, price float64) model.ItemFields {
	return model.ItemFields{Name: name, Category: category, Stock: stock, Price: model.NewPrice(price)}
}

func TestCreateAndGetItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.Create(ctx, fields("Widget", "Tools", 5, 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if !item.CreatedAt.Equal(item.UpdatedAt) {
		t.Errorf("expected created_at == updated_at, got %v and %v", item.CreatedAt, item.UpdatedAt)
	}

	got, err := s.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Widget" || got.Category != "Tools" || got.Stock != 5 {
		t.Errorf("unexpected item %+v", got)
	}
	if !got.Price.Equal(model.NewPrice(10).Decimal) {
		t.Errorf("expected price 10.00, got %s", got.Price.StringFixed(2))
	}
	if !got.CreatedAt.Equal(item.CreatedAt) {
		t.Errorf("created_at changed between create and get: %v vs %v", item.CreatedAt, got.CreatedAt)
	}
	if got.PriceDisplay == "" {
		t.Error("expected price display")
	}
	if got.HasImage {
		t.Error("expected no image on a new item")
	}
}

func TestCreateKeepsTwoDecimalPrice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	price, err := model.ParsePrice("19.99")
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	item, err := s.Create(ctx, model.ItemFields{Name: "Cable", Category: "Accessories", Stock: 1, Price: price})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Price.StringFixed(2) != "19.99" {
		t.Errorf("expected 19.99, got %s", item.Price.StringFixed(2))
	}
}

func TestGetMissingItem(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, fields("Widget", "Tools", 5, 10))

	updated, err := s.Update(ctx, item.ID, fields("Widget Pro", "Hardware", 0, 12.5))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != item.ID {
		t.Errorf("id changed on update: %d -> %d", item.ID, updated.ID)
	}

	got, _ := s.Get(ctx, item.ID)
	if got.Name != "Widget Pro" || got.Category != "Hardware" || got.Stock != 0 {
		t.Errorf("update not reflected: %+v", got)
	}
	if got.Price.StringFixed(2) != "12.50" {
		t.Errorf("expected price 12.50, got %s", got.Price.StringFixed(2))
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("expected updated_at > created_at, got %v <= %v", got.UpdatedAt, got.CreatedAt)
	}
	if !got.CreatedAt.Equal(item.CreatedAt) {
		t.Error("created_at must not change on update")
	}
}

func TestUpdateMissingItem(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Update(context.Background(), 42, fields("X", "Y", 1, 1))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, fields("Delete Me", "Misc", 1, 1))
	if err := s.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Get(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again fails rather than silently succeeding.
	if err := s.Delete(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, _ := s.Create(ctx, fields("A", "C", 1, 1))
	s.Delete(ctx, first.ID)
	second, _ := s.Create(ctx, fields("B", "C", 1, 1))

	if second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func TestListOrderAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, fields("Hammer", "Tools", 3, 50000))
	s.Create(ctx, fields("Laptop", "Electronics", 2, 9000000))
	s.Create(ctx, fields("Screwdriver", "tools", 0, 25000))

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if all[0].Name != "Screwdriver" || all[2].Name != "Hammer" {
		t.Errorf("expected newest first, got %q ... %q", all[0].Name, all[2].Name)
	}

	tools, err := s.List(ctx, "TOOL")
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(tools) != 2 {
		t.Errorf("expected 2 items matching category 'TOOL', got %d", len(tools))
	}

	byName, _ := s.List(ctx, "lap")
	if len(byName) != 1 || byName[0].Name != "Laptop" {
		t.Errorf("expected only Laptop for 'lap', got %+v", byName)
	}

	none, _ := s.List(ctx, "nothing-matches")
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestListFilterIsLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Create(ctx, fields("100% Cotton Shirt", "Apparel", 4, 120000))
	s.Create(ctx, fields("Cotton Socks", "Apparel", 9, 30000))
	s.Create(ctx, fields("USB_C Cable", "Electronics", 9, 30000))
	s.Create(ctx, fields("USB A Cable", "Electronics", 9, 30000))

	pct, _ := s.List(ctx, "%")
	if len(pct) != 1 {
		t.Errorf("expected '%%' to match literally once, got %d", len(pct))
	}

	underscore, _ := s.List(ctx, "b_c")
	if len(underscore) != 1 || underscore[0].Name != "USB_C Cable" {
		t.Errorf("expected '_' to match literally, got %+v", underscore)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty table: %v", err)
	}
	if empty.TotalItems != 0 || !empty.TotalInventoryValue.IsZero() {
		t.Errorf("expected zero stats, got %+v", empty)
	}

	s.Create(ctx, fields("Widget", "Tools", 5, 10))
	s.Create(ctx, fields("Gadget", "Tools", 0, 99.99))
	s.Create(ctx, fields("Phone", "Electronics", 2, 1500.25))

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalItems != 3 {
		t.Errorf("expected 3 items, got %d", stats.TotalItems)
	}
	if stats.TotalCategories != 2 {
		t.Errorf("expected 2 categories, got %d", stats.TotalCategories)
	}
	if stats.InStock != 2 || stats.OutOfStock != 1 {
		t.Errorf("expected 2 in stock / 1 out, got %d / %d", stats.InStock, stats.OutOfStock)
	}
	// 5*10 + 0*99.99 + 2*1500.25
	if stats.TotalInventoryValue.StringFixed(2) != "3050.50" {
		t.Errorf("expected total value 3050.50, got %s", stats.TotalInventoryValue.StringFixed(2))
	}

	items, _ := s.List(ctx, "")
	if int64(len(items)) != stats.TotalItems {
		t.Errorf("stats.total_items %d != len(list) %d", stats.TotalItems, len(items))
	}
}

func TestItemImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, fields("Photo Item", "Misc", 1, 1))

	if _, _, err := s.Image(ctx, item.ID); !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage before upload, got %v", err)
	}

	if err := s.SetImage(ctx, item.ID, []byte("fake image data"), "image/jpeg"); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	data, mime, err := s.Image(ctx, item.ID)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}

	got, _ := s.Get(ctx, item.ID)
	if !got.HasImage {
		t.Error("expected has_image after upload")
	}

	if err := s.SetImage(ctx, 999, []byte("x"), "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing item, got %v", err)
	}
	if _, _, err := s.Image(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing item image, got %v", err)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if n != len(SampleItems) {
		t.Errorf("expected %d seeded items, got %d", len(SampleItems), n)
	}

	n, err = s.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("second SeedIfEmpty: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no seeding on non-empty table, got %d", n)
	}
}

func TestTimeoutSurfacesUnavailable(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := s.List(ctx, "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for expired context, got %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestStatsExactForLargeValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const maxStock = int64(9223372036854775807)
	for _, name := range []string{"Vault", "Vault II"} {
		if _, err := s.Create(ctx, model.ItemFields{
			Name: name, Category: "Safes", Stock: maxStock, Price: model.Price{Decimal: model.MaxPrice},
		}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := model.MaxPrice.Mul(decimal.NewFromInt(maxStock)).Mul(decimal.NewFromInt(2))
	if !stats.TotalInventoryValue.Equal(want) {
		t.Errorf("total value = %s, want %s", stats.TotalInventoryValue.String(), want.String())
	}
	if stats.InStock != 2 || stats.TotalCategories != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
}

func TestNonFinitePriceFailsWithoutHoldingConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.Create(ctx, fields("Widget", "Tools", 1000, 10))
	if err != nil {
		t.Fatal(err)
	}
	// Rows written before prices were bounded can hold an infinite REAL.
	if _, err := s.db.ExecContext(ctx, `UPDATE items SET price = 1e999 WHERE id = ?`, item.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(ctx, item.ID); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get: err = %v, want scan error", err)
	}
	if _, err := s.List(ctx, ""); err == nil {
		t.Error("List: expected scan error")
	}
	if _, err := s.Stats(ctx); err == nil {
		t.Error("Stats: expected scan error")
	}

	// The in-memory database has a single connection; it must be free again.
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping after failed scans: %v", err)
	}
}
