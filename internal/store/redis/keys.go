package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixState is the prefix for per-profile client state hashes.
	KeyPrefixState = "marksync:state:"

	fieldActiveWorkspace = "active_workspace"
	fieldCredential      = "credential"
)

// StateKey returns the Redis key holding the state of one profile.
func StateKey(profile string) string {
	return KeyPrefixState + profile
}

// ExtractProfile extracts the profile name from a state key.
func ExtractProfile(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixState) || len(key) == len(KeyPrefixState) {
		return "", fmt.Errorf("invalid state key: %s", key)
	}
	return key[len(KeyPrefixState):], nil
}
