package redis

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

func TestStateKeyRoundTrip(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{StateKey("bookmarks.example.com"), "bookmarks.example.com", false},
		{KeyPrefixState, "", true},
		{"other:key:x", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractProfile(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractProfile(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractProfile(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestNewStoreDefaultProfile(t *testing.T) {
	s := NewStore(nil, "  ")
	if s.profile != "default" {
		t.Errorf("profile = %q, want default", s.profile)
	}
}

// TestStoreAgainstRedis runs only when MARKSYNC_TEST_REDIS_ADDR points at a
// disposable Redis instance.
func TestStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("MARKSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MARKSYNC_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	s := NewStore(client, "test-"+t.Name())
	defer s.Clear(ctx)

	if st, err := s.Load(ctx); err != nil || st != (domain.ClientState{}) {
		t.Fatalf("Load() on empty = (%+v, %v)", st, err)
	}

	want := domain.ClientState{ActiveWorkspace: "w1", Credential: "tok"}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if got, _ := s.Load(ctx); got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	if err := s.Save(ctx, domain.ClientState{ActiveWorkspace: "w1"}); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if got, _ := s.Load(ctx); got.Credential != "" {
		t.Errorf("credential = %q after clearing it", got.Credential)
	}
}
