// Package pg connects to PostgreSQL with pgx/v5 and applies goose migrations
// from an embedded filesystem.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, archive.Migrations, archive.MigrationsDir, cfg, log); err != nil {
//	    return err
//	}
package pg
