// Package database provides SQLite connectivity for the Shabbat clock.
//
// The only table of interest is the blob table written by storage.SQLiteStore;
// its schema lives in the top-level migrations package, which registers an
// embedded filesystem with MigrationsFS at init time.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive. Each file pair is named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
