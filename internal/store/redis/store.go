package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// Store persists client state in a Redis hash, one per profile. Several
// marksync processes pointed at the same server share their state this way.
type Store struct {
	client  *redis.Client
	profile string
}

// NewStore creates a store for profile, typically the server host.
func NewStore(client *redis.Client, profile string) *Store {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return &Store{client: client, profile: profile}
}

// Load returns the stored state. A missing key is an empty state.
func (s *Store) Load(ctx context.Context) (domain.ClientState, error) {
	fields, err := s.client.HGetAll(ctx, StateKey(s.profile)).Result()
	if err != nil {
		return domain.ClientState{}, fmt.Errorf("failed to load client state: %w", err)
	}
	return domain.ClientState{
		ActiveWorkspace: fields[fieldActiveWorkspace],
		Credential:      fields[fieldCredential],
	}, nil
}

// Save writes the state. Empty fields are removed from the hash.
func (s *Store) Save(ctx context.Context, st domain.ClientState) error {
	key := StateKey(s.profile)
	pipe := s.client.TxPipeline()

	set := map[string]string{}
	var del []string
	for field, val := range map[string]string{
		fieldActiveWorkspace: st.ActiveWorkspace,
		fieldCredential:      st.Credential,
	} {
		if val == "" {
			del = append(del, field)
		} else {
			set[field] = val
		}
	}
	if len(set) > 0 {
		pipe.HSet(ctx, key, set)
	}
	if len(del) > 0 {
		pipe.HDel(ctx, key, del...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save client state: %w", err)
	}
	return nil
}

// Clear removes the stored state of this profile.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, StateKey(s.profile)).Err(); err != nil {
		return fmt.Errorf("failed to clear client state: %w", err)
	}
	return nil
}

// Profiles lists every profile with stored state.
func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, KeyPrefixState+"*", 0).Iterator()
	for iter.Next(ctx) {
		p, err := ExtractProfile(iter.Val())
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return out, nil
}
