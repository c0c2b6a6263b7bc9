package authgate

import (
	"time"

	"github.com/uptrace/bun"
)

// ProfileRecord is the durable profile kept in the backing store. ID is the
// identity ID and never changes once created. IsAdmin is optional: records
// written without the flag leave it nil.
type ProfileRecord struct {
	bun.BaseModel `bun:"table:profiles,alias:prf" json:"-" bson:"-"`

	ID          string    `bun:"id,pk" json:"id" bson:"_id"`
	Role        Role      `bun:"role,notnull" json:"role" bson:"role"`
	Email       string    `bun:"email,nullzero" json:"email,omitempty" bson:"email,omitempty"`
	DisplayName string    `bun:"display_name,nullzero" json:"display_name,omitempty" bson:"display_name,omitempty"`
	IsAdmin     *bool     `bun:"is_admin" json:"is_admin,omitempty" bson:"is_admin,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at" bson:"updated_at"`
}

// ProfileUpdate is a partial update. Nil fields are left untouched.
type ProfileUpdate struct {
	Role        *Role
	IsAdmin     *bool
	Email       *string
	DisplayName *string
	UpdatedAt   time.Time
}

// Empty reports whether no field is queued.
func (u ProfileUpdate) Empty() bool {
	return u.Role == nil && u.IsAdmin == nil && u.Email == nil && u.DisplayName == nil
}

// Fields returns the queued fields keyed by their stored name. UpdatedAt is
// included when set.
func (u ProfileUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.Role != nil {
		fields["role"] = string(*u.Role)
	}
	if u.IsAdmin != nil {
		fields["is_admin"] = *u.IsAdmin
	}
	if u.Email != nil {
		fields["email"] = *u.Email
	}
	if u.DisplayName != nil {
		fields["display_name"] = *u.DisplayName
	}
	if !u.UpdatedAt.IsZero() {
		fields["updated_at"] = u.UpdatedAt
	}
	return fields
}

// Apply copies the queued fields onto record.
func (u ProfileUpdate) Apply(record *ProfileRecord) {
	if record == nil {
		return
	}
	if u.Role != nil {
		record.Role = *u.Role
	}
	if u.IsAdmin != nil {
		v := *u.IsAdmin
		record.IsAdmin = &v
	}
	if u.Email != nil {
		record.Email = *u.Email
	}
	if u.DisplayName != nil {
		record.DisplayName = *u.DisplayName
	}
	if !u.UpdatedAt.IsZero() {
		record.UpdatedAt = u.UpdatedAt
	}
}

// Clone returns a deep copy.
func (r *ProfileRecord) Clone() *ProfileRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.IsAdmin != nil {
		v := *r.IsAdmin
		c.IsAdmin = &v
	}
	return &c
}

func newProfileRecord(identity *Identity, role Role, isAdmin bool, now time.Time) *ProfileRecord {
	return &ProfileRecord{
		ID:          identity.ID,
		Role:        role,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		IsAdmin:     &isAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
