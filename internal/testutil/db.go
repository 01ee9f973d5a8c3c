package testutil

import (
	"testing"

	authdomain "mailflow-backend/internal/auth/domain"
	maildomain "mailflow-backend/internal/mail/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an in-memory SQLite database with all schemas migrated.
// Each call returns an isolated database; it is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	// Every pooled connection would see its own empty in-memory database,
	// so pin the pool to a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("accessing test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{},
		&maildomain.Account{}, &maildomain.Thread{}, &maildomain.Email{},
		&maildomain.EmailAddress{}, &maildomain.EmailAttachment{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}
