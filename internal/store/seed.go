package store

import (
	"context"
	"fmt"

	"github.com/erazemk/inventaris/internal/model"
)

// SampleItems are inserted into an empty database on first start.
var SampleItems = []model.ItemFields{
	{Name: "Laptop Dell XPS 13", Category: "Electronics", Stock: 10, Price: model.NewPrice(15000000)},
	{Name: "Mouse Wireless Logitech", Category: "Electronics", Stock: 25, Price: model.NewPrice(150000)},
	{Name: "Keyboard Mechanical RGB", Category: "Electronics", Stock: 15, Price: model.NewPrice(800000)},
	{Name: "Monitor 24 inch 4K", Category: "Electronics", Stock: 8, Price: model.NewPrice(2500000)},
	{Name: "Webcam HD 1080p", Category: "Electronics", Stock: 12, Price: model.NewPrice(500000)},
	{Name: "Smartphone Samsung Galaxy", Category: "Electronics", Stock: 20, Price: model.NewPrice(12000000)},
	{Name: "Headphones Sony WH-1000XM4", Category: "Electronics", Stock: 18, Price: model.NewPrice(4500000)},
	{Name: "Tablet iPad Air", Category: "Electronics", Stock: 6, Price: model.NewPrice(8000000)},
	{Name: "Printer HP LaserJet", Category: "Electronics", Stock: 5, Price: model.NewPrice(3200000)},
	{Name: "External Hard Drive 1TB", Category: "Electronics", Stock: 30, Price: model.NewPrice(1200000)},
}

// SeedIfEmpty inserts SampleItems when the items table has no rows.
// It returns the number of inserted items.
func (s *ItemStore) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i, f := range SampleItems {
		if _, err := s.Create(ctx, f); err != nil {
			return i, fmt.Errorf("seeding item %q: %w", f.Name, err)
		}
	}
	return len(SampleItems), nil
}
