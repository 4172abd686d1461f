package crm

import (
	"context"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

func (r *Repository) ListProducts(ctx context.Context) ([]contractx.Product, error) {
	var rows []productModel
	if err := r.db.NewSelect().
		Model(&rows).
		OrderExpr(`p."ProductID" ASC`).
		Scan(ctx); err != nil {
		return nil, persistErr("list products", err)
	}

	out := make([]contractx.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.product())
	}
	return out, nil
}

// ReplaceProducts swaps the whole catalog in one transaction.
func (r *Repository) ReplaceProducts(ctx context.Context, products []contractx.Product) error {
	return r.write(ctx, "replace products", func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*productModel)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return persistErr("clear products", err)
		}
		if len(products) == 0 {
			return nil
		}

		rows := make([]productModel, 0, len(products))
		for _, p := range products {
			rows = append(rows, productModel{
				Name:         p.Name,
				Category:     p.Category,
				StartPrice:   p.StartPrice,
				PriceLimit:   p.PriceLimit,
				Availability: p.Availability,
			})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return persistErr("insert products", err)
		}
		return nil
	})
}
