package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStoreFactory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cases := []struct {
		name    string
		kind    string
		dsn     string
		wantErr bool
	}{
		{"memory", "memory", "", false},
		{"mem alias", "mem", "", false},
		{"file", "file", filepath.Join(dir, "factory_store.json"), false},
		{"file without path", "file", "", true},
		{"sqlite", "sqlite", filepath.Join(dir, "factory.db"), false},
		{"sqlite without path", "sqlite", "", true},
		{"postgres without dsn", "postgres", "", true},
		{"unknown", "mongo", "x", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := NewStore(ctx, tc.kind, tc.dsn)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for kind %q", tc.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore %s failed: %v", tc.kind, err)
			}
			if st == nil {
				t.Fatalf("expected non-nil store for %s", tc.kind)
			}
			if err := st.Close(); err != nil {
				t.Fatalf("close failed: %v", err)
			}
		})
	}
}
