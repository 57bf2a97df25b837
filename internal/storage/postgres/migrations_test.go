package postgres

import (
	"slices"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	steps, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(steps) != 1 || steps[0].version != "001_slots.sql" {
		t.Fatalf("unexpected migrations %+v", steps)
	}
	for _, table := range []string{"slots", "secrets"} {
		if !strings.Contains(steps[0].sql, table) {
			t.Errorf("expected %s table in %s", table, steps[0].version)
		}
	}
}

func TestLoadMigrations_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_later.sql":  {Data: []byte("SELECT 10;")},
		"migrations/002_second.sql": {Data: []byte("SELECT 2;")},
		"migrations/001_first.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.md":      {Data: []byte("not a migration")},
	}

	steps, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	var got []string
	for _, m := range steps {
		got = append(got, m.version)
	}
	if want := []string{"001_first.sql", "002_second.sql", "010_later.sql"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLoadMigrations_RejectsEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_blank.sql": {Data: []byte("  \n")},
	}
	if _, err := loadMigrations(fsys); err == nil {
		t.Error("expected an error for an empty migration")
	}
}
