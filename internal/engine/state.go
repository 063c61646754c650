package engine

import (
	"context"
	"fmt"
	"strings"
)

// Restore loads the persisted client state. The stored credential is used
// unless one is already set. The stored workspace applies only when none was
// chosen yet, e.g. from the start URL.
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading client state: %w", err)
	}
	if st.Credential != "" && e.remote.Credential() == "" {
		e.remote.SetCredential(st.Credential)
	}
	if st.ActiveWorkspace != "" && e.query.Current().WorkspaceID == "" {
		e.query.SetWorkspace(st.ActiveWorkspace)
		e.query.SetUserLoading(false)
	}
	return nil
}

// HandleUnauthorized is the global 401 callback: it forgets the stored
// credential and flags the state. Fetch cycles are not retried.
func (e *Engine) HandleUnauthorized() {
	e.remote.SetCredential("")
	e.persist(e.query.Current().WorkspaceID, "")
	e.mutate(func() bool {
		if e.unauthorized {
			return false
		}
		e.unauthorized = true
		return true
	})
}

// SetCredential installs a new credential, persists it and refetches.
func (e *Engine) SetCredential(token string) {
	token = strings.TrimSpace(token)
	e.remote.SetCredential(token)
	e.persist(e.query.Current().WorkspaceID, token)
	e.mutate(func() bool {
		e.unauthorized = false
		return true
	})
	e.cache.Invalidate("")
	e.RequestRefetch()
}
