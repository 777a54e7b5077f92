package testutil

import (
	"testing"

	"gorm.io/gorm"
)

// CreateFixture inserts one seed row, failing the test on error.
func CreateFixture(t *testing.T, db *gorm.DB, model interface{}) {
	t.Helper()

	if err := db.Create(model).Error; err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
}

// CreateFixtures inserts seed rows in order, so parent rows can precede the
// rows that reference them.
func CreateFixtures(t *testing.T, db *gorm.DB, models ...interface{}) {
	t.Helper()

	for _, model := range models {
		CreateFixture(t, db, model)
	}
}
