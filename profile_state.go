package authgate

import "context"

// ProfileState is the in memory role decision for one session. Ready is
// true once a reconciliation finished, whatever its outcome.
type ProfileState struct {
	cell    *readyCell
	role    Role
	hasRole bool
}

// NewProfileState returns an empty, not ready state.
func NewProfileState() *ProfileState {
	return &ProfileState{cell: newReadyCell()}
}

// Role returns the resolved role and whether there is one.
func (p *ProfileState) Role() (Role, bool) {
	p.cell.mu.Lock()
	defer p.cell.mu.Unlock()
	return p.role, p.hasRole
}

// Ready reports whether reconciliation finished.
func (p *ProfileState) Ready() bool {
	return p.cell.isReady()
}

// WaitUntilReady blocks until a reconciliation finishes or ctx ends.
func (p *ProfileState) WaitUntilReady(ctx context.Context) error {
	return p.cell.wait(ctx)
}

// Reset clears the role and marks the state not ready.
func (p *ProfileState) Reset() {
	p.cell.mu.Lock()
	defer p.cell.mu.Unlock()
	p.role = ""
	p.hasRole = false
	p.cell.resetLocked()
}

func (p *ProfileState) markNotReady() {
	p.cell.mu.Lock()
	defer p.cell.mu.Unlock()
	p.cell.resetLocked()
}

func (p *ProfileState) setRole(role Role, ok bool) {
	p.cell.mu.Lock()
	defer p.cell.mu.Unlock()
	if !ok {
		role = ""
	}
	p.role = role
	p.hasRole = ok
}

func (p *ProfileState) markReady() {
	p.cell.mu.Lock()
	defer p.cell.mu.Unlock()
	p.cell.markReadyLocked()
}
