// Package cachetest checks the behaviour every cache.Cache backend must share.
package cachetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Strob0t/StatForge/internal/port/cache"
)

// Run exercises c with result-set shaped values. Keys are unique per call so
// backends that persist across tests can be reused.
func Run(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()
	prefix := fmt.Sprintf("sql_%d_", time.Now().UnixNano())

	t.Run("stored result is returned", func(t *testing.T) {
		want := `{"columns":["player_name","passing_yards"],"rows":[["Joe Burrow",620]]}`
		if err := c.Set(ctx, prefix+"hit", []byte(want), time.Minute); err != nil {
			t.Fatal(err)
		}
		got, ok, err := c.Get(ctx, prefix+"hit")
		if err != nil || !ok {
			t.Fatalf("Get = ok %v, err %v", ok, err)
		}
		if string(got) != want {
			t.Errorf("Get = %s", got)
		}
	})

	t.Run("unknown key is a clean miss", func(t *testing.T) {
		if _, ok, err := c.Get(ctx, prefix+"never"); ok || err != nil {
			t.Errorf("Get = ok %v, err %v", ok, err)
		}
	})

	t.Run("later result replaces earlier", func(t *testing.T) {
		_ = c.Set(ctx, prefix+"ow", []byte(`{"rows":[]}`), time.Minute)
		if err := c.Set(ctx, prefix+"ow", []byte(`{"rows":[[1]]}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		got, ok, _ := c.Get(ctx, prefix+"ow")
		if !ok || string(got) != `{"rows":[[1]]}` {
			t.Errorf("Get = %s, ok %v", got, ok)
		}
	})

	t.Run("zero ttl uses backend default", func(t *testing.T) {
		if err := c.Set(ctx, prefix+"default", []byte(`{}`), 0); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := c.Get(ctx, prefix+"default"); !ok {
			t.Error("entry stored with zero ttl was not kept")
		}
	})
}
