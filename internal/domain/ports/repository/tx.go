package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is the storage-specific transaction handle (pgx.Tx for Postgres).
// Repositories accept nil for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one database transaction and hands the
// handle to every repository call made through tx. A non-nil error from fn
// rolls the transaction back.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		o, err := orders.FindByReference(ctx, tx, ref, id)
//		...
//		return err
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
