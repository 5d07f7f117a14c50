package pg

import (
	"context"
	"fmt"

	"dip_bot/internal/models"
	"dip_bot/internal/modules/engine/service/pg/orders/sql"
	"dip_bot/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Orders — durable-стор трекера поверх postgres.
type Orders struct {
	db  *db.PgTxManager
	sql *sql.Queries
}

// NewOrders instance
func NewOrders(db *db.PgTxManager) *Orders {
	return &Orders{
		db:  db,
		sql: sql.New(),
	}
}

func (o *Orders) Insert(ctx context.Context, order models.TrackedOrder) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Orders.Insert: %w", err)
		}
	}()
	return o.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			return o.sql.Insert(ctxTx, tx, &sql.InsertParams{
				Uuid:     order.OrderID,
				DipPct:   order.DipPercent.String(),
				Price:    order.Price.String(),
				Volume:   order.BaseAmount.String(),
				PlacedAt: order.PlacedAt,
			})
		})
}

func (o *Orders) Delete(ctx context.Context, orderID string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Orders.Delete: %w", err)
		}
	}()
	return o.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			return o.sql.Delete(ctxTx, tx, orderID)
		})
}

func (o *Orders) DeleteAll(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Orders.DeleteAll: %w", err)
		}
	}()
	return o.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			return o.sql.DeleteAll(ctxTx, tx)
		})
}

func (o *Orders) SelectAll(ctx context.Context) (orders []models.TrackedOrder, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Orders.SelectAll: %w", err)
		}
	}()
	err = o.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			rows, err := o.sql.GetAll(ctxTx, tx)
			if err != nil {
				return err
			}
			orders = make([]models.TrackedOrder, 0, len(rows))
			for _, r := range rows {
				dip, err := decimal.NewFromString(r.DipPct)
				if err != nil {
					return fmt.Errorf("parse dip_pct %q: %w", r.DipPct, err)
				}
				price, err := decimal.NewFromString(r.Price)
				if err != nil {
					return fmt.Errorf("parse price %q: %w", r.Price, err)
				}
				volume, err := decimal.NewFromString(r.Volume)
				if err != nil {
					return fmt.Errorf("parse volume %q: %w", r.Volume, err)
				}
				orders = append(orders, models.TrackedOrder{
					OrderID:    r.Uuid,
					DipPercent: dip,
					Price:      price,
					BaseAmount: volume,
					PlacedAt:   r.PlacedAt,
				})
			}
			return nil
		})
	return orders, err
}
