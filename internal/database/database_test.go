package database

import (
	"path/filepath"
	"testing"
)

func TestSetupDatabaseAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.sqlite")

	db, err := SetupDatabase(path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer Close(db)

	migrations, err := MigrationsNewerThan(0)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}

	latest := migrations[len(migrations)-1].Version
	if got := CurrentSchemaVersion(db); got != latest {
		t.Errorf("schema version = %d, want %d", got, latest)
	}

	for _, table := range []string{"stations", "measurements"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := SetupDatabase(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer Close(db)

	before := CurrentSchemaVersion(db)
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if after := CurrentSchemaVersion(db); after != before {
		t.Errorf("version changed from %d to %d", before, after)
	}
}

func TestMigrationsAreOrdered(t *testing.T) {
	migrations, err := MigrationsNewerThan(0)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Errorf("migration %s is out of order", migrations[i].Name)
		}
	}

	newer, err := MigrationsNewerThan(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(newer) != len(migrations)-1 {
		t.Errorf("expected %d migrations newer than 1, got %d", len(migrations)-1, len(newer))
	}
}

func TestRollback(t *testing.T) {
	db, err := SetupDatabase(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer Close(db)

	if err := Rollback(db, 1); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := CurrentSchemaVersion(db); got != 1 {
		t.Errorf("schema version = %d, want 1", got)
	}
	if db.Migrator().HasTable("measurements") {
		t.Error("measurements should have been dropped")
	}
	if !db.Migrator().HasTable("stations") {
		t.Error("stations should remain")
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	if !db.Migrator().HasTable("measurements") {
		t.Error("measurements should be back")
	}
}
