package authgate

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// RolePrecedence decides who wins once a profile record exists: the stored
// role or the admin allow-list.
type RolePrecedence string

const (
	// RolePrecedenceStored keeps a valid stored role. The allow-list only
	// seeds new records and promotes records without a valid role.
	RolePrecedenceStored RolePrecedence = "stored"
	// RolePrecedenceAllowList derives the role from the stored admin flag
	// and re-syncs that flag from the allow-list on every reconciliation.
	RolePrecedenceAllowList RolePrecedence = "allow_list"
)

// IsValid reports whether p is a known precedence.
func (p RolePrecedence) IsValid() bool {
	switch p {
	case RolePrecedenceStored, RolePrecedenceAllowList:
		return true
	default:
		return false
	}
}

// Reconciler aligns the in memory role with the durable profile record.
// It is safe for concurrent use and shared across sessions.
type Reconciler struct {
	store      ProfileStore
	allowList  AllowList
	precedence RolePrecedence
	now        func() time.Time
	logger     Logger
	metrics    *Metrics
	group      singleflight.Group
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithRolePrecedence selects the precedence rule for existing records.
func WithRolePrecedence(p RolePrecedence) ReconcilerOption {
	return func(r *Reconciler) {
		if p.IsValid() {
			r.precedence = p
		}
	}
}

// WithReconcilerClock injects a custom clock (useful for tests).
func WithReconcilerClock(clock func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithReconcilerLogger overrides the logger.
func WithReconcilerLogger(l Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReconcilerMetrics records reconciliation outcomes.
func WithReconcilerMetrics(m *Metrics) ReconcilerOption {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// NewReconciler creates a reconciler. store may be nil, in which case every
// authenticated identity resolves to no role.
func NewReconciler(store ProfileStore, allowList AllowList, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:      store,
		allowList:  allowList,
		precedence: RolePrecedenceStored,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = resolveLogger("authgate.reconciler", r.logger)
	return r
}

// Precedence returns the configured precedence rule.
func (r *Reconciler) Precedence() RolePrecedence {
	return r.precedence
}

type ensureOptions struct {
	force bool
}

// EnsureOption customizes EnsureProfile.
type EnsureOption func(*ensureOptions)

// WithForce re-resolves the profile even if the state is ready.
func WithForce() EnsureOption {
	return func(o *ensureOptions) {
		o.force = true
	}
}

// EnsureProfile resolves the role for identity into state. It never returns
// an error: store failures are logged and the role falls back to the
// allow-list default. state is always ready when EnsureProfile returns.
func (r *Reconciler) EnsureProfile(ctx context.Context, state *ProfileState, identity *Identity, opts ...EnsureOption) {
	o := ensureOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if state.Ready() && !o.force {
		return
	}

	if o.force {
		state.markNotReady()
	}

	defer state.markReady()

	if r == nil || r.store == nil || identity == nil || identity.ID == "" {
		state.setRole("", false)
		if r != nil {
			r.metrics.observeReconcile(outcomeSkipped, 0)
		}
		return
	}

	key := identity.ID
	if o.force {
		key += "|force"
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, identity)
	})

	res, _ := v.(resolution)
	if err != nil {
		r.logger.Error("failed to resolve user profile",
			"error", err,
			"user_id", identity.ID,
			"fallback_role", res.role,
		)
	}

	if !res.role.IsValid() {
		res.role = RoleClient
	}
	state.setRole(res.role, true)
}

type resolution struct {
	role    Role
	outcome string
}

// Resolve runs one reconciliation against the store and returns the role.
// The returned role is usable even when err is not nil.
func (r *Reconciler) Resolve(ctx context.Context, identity *Identity) (Role, error) {
	if identity == nil || identity.ID == "" {
		return "", ErrIdentityRequired
	}
	if r.store == nil {
		return "", ErrStoreRequired
	}
	res, err := r.resolve(ctx, identity)
	return res.role, err
}

func (r *Reconciler) resolve(ctx context.Context, identity *Identity) (res resolution, err error) {
	started := r.now()
	defer func() {
		r.metrics.observeReconcile(res.outcome, r.now().Sub(started))
	}()

	defaultAdmin := r.allowList.Contains(identity.Email)
	defaultRole := RoleFromAdmin(defaultAdmin)

	record, err := r.store.Get(ctx, identity.ID)
	if err == nil && record == nil {
		err = ErrProfileNotFound
	}

	switch {
	case err == nil:
	case IsProfileNotFound(err):
		created := newProfileRecord(identity, defaultRole, defaultAdmin, r.now())
		err = r.store.Create(ctx, created)
		if err == nil {
			r.metrics.observeWrite("create")
			r.logger.Info("created user profile",
				"user_id", identity.ID,
				"role", defaultRole,
			)
			return resolution{role: defaultRole, outcome: outcomeCreated}, nil
		}

		if !IsProfileExists(err) {
			return resolution{role: defaultRole, outcome: outcomeFailed}, storeFailure(err, "create")
		}

		// another reconciliation created it first, reconcile theirs
		record, err = r.store.Get(ctx, identity.ID)
		if err != nil || record == nil {
			if err == nil {
				err = ErrProfileNotFound
			}
			return resolution{role: defaultRole, outcome: outcomeFailed}, storeFailure(err, "read")
		}
	default:
		return resolution{role: defaultRole, outcome: outcomeFailed}, storeFailure(err, "read")
	}

	role, update := r.reconcile(record, identity, defaultAdmin)
	if update.Empty() {
		return resolution{role: role, outcome: outcomeUnchanged}, nil
	}

	update.UpdatedAt = r.now()
	if err := r.store.Update(ctx, identity.ID, update); err != nil {
		return resolution{role: role, outcome: outcomeFailed}, storeFailure(err, "update")
	}

	r.metrics.observeWrite("update")
	r.logger.Debug("corrected user profile",
		"user_id", identity.ID,
		"fields", len(update.Fields())-1,
	)

	return resolution{role: role, outcome: outcomeUpdated}, nil
}

// reconcile derives the role from a stored record and queues corrections.
func (r *Reconciler) reconcile(record *ProfileRecord, identity *Identity, defaultAdmin bool) (Role, ProfileUpdate) {
	var (
		role   Role
		update ProfileUpdate
	)

	switch r.precedence {
	case RolePrecedenceAllowList:
		// the role follows the stored flag; a corrected flag takes effect
		// on the next reconciliation
		storedAdmin := defaultAdmin
		if record.IsAdmin != nil {
			storedAdmin = *record.IsAdmin
		}
		if record.IsAdmin == nil || storedAdmin != defaultAdmin {
			synced := defaultAdmin
			update.IsAdmin = &synced
		}
		role = RoleFromAdmin(storedAdmin)
		if record.Role != role {
			update.Role = &role
		}
	default:
		if stored, ok := ParseRole(string(record.Role)); ok {
			role = stored
		} else {
			role = RoleFromAdmin(defaultAdmin)
			if defaultAdmin {
				update.Role = &role
			}
		}
	}

	if name := identity.DisplayName; name != "" && name != record.DisplayName {
		update.DisplayName = &name
	}

	if email := identity.Email; email != "" && email != record.Email {
		update.Email = &email
	}

	return role, update
}
