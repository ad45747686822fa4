// Package store persists features for the waypoint record service.
//
// Rows live in a single features table managed by gorm. Geometry and extra
// GeoJSON properties are JSON columns (gorm.io/datatypes), so the same model
// works on PostgreSQL in production and SQLite for local runs and tests.
//
// Open picks the dialector from config.Database and runs AutoMigrate. All
// Repository methods take a context and wrap driver errors; a missing id is
// reported as ErrNotFound so the HTTP layer can map it to 404.
package store
