package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// Repositories accept the handle as an opaque Tx and MUST gracefully accept
// nil (non-transactional path). The concrete type is infra-defined
// (pgx.Tx for Postgres), which lets a repository run SELECT ... FOR UPDATE
// or tx-bound Exec/Query when one is present.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
