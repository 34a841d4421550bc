package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/HerbHall/netmeter/pkg/plugin"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTxCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO t (name) VALUES ('hello')`)
		return err
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}

	var name string
	if err := s.DB().QueryRow(`SELECT name FROM t WHERE id = 1`).Scan(&name); err != nil {
		t.Fatalf("query: %v", err)
	}
	if name != "hello" {
		t.Errorf("name = %q, want %q", name, "hello")
	}
}

func TestTxRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.DB().Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	wantErr := sql.ErrNoRows // any sentinel works for the rollback path
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO t (id) VALUES (1)`); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Tx error = %v, want %v", err, wantErr)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rows after rollback = %d, want 0", n)
	}
}

func TestMigrate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create widgets",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY)`)
				return err
			},
		},
		{
			Version:     2,
			Description: "add name column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE widgets ADD COLUMN name TEXT`)
				return err
			},
		},
	}

	if err := s.Migrate(ctx, "test", migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Applying the same set again must be a no-op.
	if err := s.Migrate(ctx, "test", migrations); err != nil {
		t.Fatalf("Migrate (second run): %v", err)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM _migrations WHERE plugin = 'test'`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 2 {
		t.Errorf("applied migrations = %d, want 2", n)
	}

	if _, err := s.DB().Exec(`INSERT INTO widgets (id, name) VALUES (1, 'w')`); err != nil {
		t.Errorf("insert into migrated table: %v", err)
	}
}

func TestMigrateIsolatedPerPlugin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(table string) []plugin.Migration {
		return []plugin.Migration{{
			Version:     1,
			Description: "create " + table,
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE ` + table + ` (id INTEGER PRIMARY KEY)`)
				return err
			},
		}}
	}

	if err := s.Migrate(ctx, "alpha", mk("alpha_items")); err != nil {
		t.Fatalf("Migrate alpha: %v", err)
	}
	if err := s.Migrate(ctx, "beta", mk("beta_items")); err != nil {
		t.Fatalf("Migrate beta: %v", err)
	}

	for _, table := range []string{"alpha_items", "beta_items"} {
		if _, err := s.DB().Exec(`INSERT INTO ` + table + ` (id) VALUES (1)`); err != nil {
			t.Errorf("insert into %s: %v", table, err)
		}
	}
}

func TestMigrateFailureRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := []plugin.Migration{{
		Version:     1,
		Description: "broken",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`THIS IS NOT SQL`)
			return err
		},
	}}

	if err := s.Migrate(ctx, "bad", bad); err == nil {
		t.Fatal("Migrate succeeded with broken SQL")
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM _migrations WHERE plugin = 'bad'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("recorded migrations after failure = %d, want 0", n)
	}
}
