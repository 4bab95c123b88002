// Package pg connects to PostgreSQL through pgx and stores sessions in it.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	store := pg.NewSessionStore(pool, pg.WithTable(cfg.SessionTable))
//	if err := store.Migrate(ctx); err != nil {
//		return err
//	}
//	sessions := session.NewManager(store)
//
// SessionStore runs on the transaction stored in the context by WithTx when
// there is one, so session writes can join a handler's transaction.
//
// Error helpers classify driver errors:
//
//	pg.IsNotFoundError(err)       // pgx.ErrNoRows
//	pg.IsDuplicateKeyError(err)   // unique_violation
//	pg.IsTxClosedError(err)       // pgx.ErrTxClosed
package pg
