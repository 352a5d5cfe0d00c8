package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT * FROM users WHERE id = ? AND email = ?"
		if result := dialect.RewriteQuery(query); result != query {
			t.Errorf("RewriteQuery() = %v, want unchanged", result)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if result := dialect.MigrationsSubdir(); result != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want sqlite", result)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if result := dialect.DriverName(); result != "postgres" {
			t.Errorf("DriverName() = %v, want postgres", result)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT * FROM users WHERE id = ? AND email = ?"
		expected := "SELECT * FROM users WHERE id = $1 AND email = $2"
		if result := dialect.RewriteQuery(query); result != expected {
			t.Errorf("RewriteQuery() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if result := dialect.MigrationsSubdir(); result != "postgres" {
			t.Errorf("MigrationsSubdir() = %v, want postgres", result)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if result := dialect.DriverName(); result != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", result)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT * FROM users WHERE id = ?"
		if result := dialect.RewriteQuery(query); result != query {
			t.Errorf("RewriteQuery() = %v, want unchanged", result)
		}
	})
}

func TestIsUniqueViolationNilSafe(t *testing.T) {
	dialects := []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()}

	for _, d := range dialects {
		if d.IsUniqueViolation(nil) {
			t.Errorf("%T.IsUniqueViolation(nil) = true, want false", d)
		}
	}
}
