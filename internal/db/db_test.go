package db

import (
	"strings"
	"testing"
)

func TestMigrationFilesAreOrdered(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	want := []string{"0001_members.sql", "0002_class_templates.sql", "0003_bookings.sql", "0004_credit_transactions.sql"}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("file %d: got %s, want %s", i, files[i], want[i])
		}
	}
}

func TestMigrationsAreNotEmpty(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	for _, f := range files {
		body, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			t.Errorf("%s is empty", f)
		}
	}
}
