package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadDefaultsWhenAbsent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing", "settings.yaml"))
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(Defaults(), got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "settings.yaml")
	store := NewFileStore(path)

	first := Settings{CompanyName: "Eco Trim", BankDetails: "CIMB: 1", Terms: "Net 7"}
	require.NoError(t, store.Save(ctx, first))
	second := Settings{CompanyName: "Eco Trim Enterprise"}
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("save must replace, not merge (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("company_name: [unclosed"), 0o600))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestProvider_UpdateIsVisibleAndPersisted(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	p, err := NewProvider(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "Eco Trim Enterprise", p.Current().CompanyName)

	next := Defaults()
	next.BankDetails = "MAYBANK: 000"
	require.NoError(t, p.Update(ctx, next))
	assert.Equal(t, "MAYBANK: 000", p.Current().BankDetails)

	reloaded, err := NewProvider(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, next, reloaded.Current())
}

func TestProvider_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, NewFileStore(filepath.Join(t.TempDir(), "s.yaml")))
	require.NoError(t, err)
	err = p.Update(ctx, Settings{CompanyName: ""})
	assert.Error(t, err)
	assert.Equal(t, Defaults(), p.Current())
}

func TestProvider_ConcurrentLastWriteWins(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, NewFileStore(filepath.Join(t.TempDir(), "s.yaml")))
	require.NoError(t, err)
	var wg sync.WaitGroup
	for _, name := range []string{"A", "B", "C", "D"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Update(ctx, Settings{CompanyName: name}))
			_ = p.Current()
		}()
	}
	wg.Wait()
	assert.Contains(t, []string{"A", "B", "C", "D"}, p.Current().CompanyName)
}

func TestTermLines(t *testing.T) {
	assert.Equal(t,
		[]string{"Quote valid for 30 days.", "50% deposit secures booking.", "Balance due upon completion."},
		Defaults().TermLines())
	assert.Empty(t, Settings{Terms: "\n  \n"}.TermLines())
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisStoreWithClient(client, "ecotrim:test:"+t.Name())
	t.Cleanup(func() {
		client.Del(ctx, store.key)
		_ = store.Close()
	})

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)

	want := Settings{CompanyName: "Eco Trim", Terms: "Net 14"}
	require.NoError(t, store.Save(ctx, want))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
