// Package gorm opens the application database from environment
// configuration.
package gorm

import "gorm.io/gorm"

// New opens a connection for the configured dialector. Schema setup
// happens in the store constructors, not here.
func New() (*gorm.DB, error) {
	cfg := ParseConfig()
	db, err := gorm.Open(cfg.Dialector, cfg.Options)
	if err != nil {
		return &gorm.DB{}, err
	}
	return db, nil
}

// Close closes the underlying connection; failing to is fatal since it
// only happens on shutdown.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		panic("treasury-wallet: unable to close database")
	}
	if err := sqlDB.Close(); err != nil {
		panic("treasury-wallet: unable to close database")
	}
}
