package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")

	db, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, $3)`, "k", "v", 1); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Opening again must not fail on the existing schema.
	again, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer again.Close()

	var value string
	if err := again.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=$1`, "k").Scan(&value); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if value != "v" {
		t.Errorf("Expected v, got %q", value)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("mysql"), ""); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		input   string
		want    Driver
		wantErr bool
	}{
		{"sqlite", DriverSQLite, false},
		{"SQLite3", DriverSQLite, false},
		{"postgres", DriverPostgres, false},
		{"pgx", DriverPostgres, false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDriver(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDriver(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
