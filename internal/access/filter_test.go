package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docportal/internal/model"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name             string
		role             model.Role
		mode             model.ImpersonationMode
		wantUnrestricted bool
	}{
		{name: "admin acting as admin", role: model.RoleAdmin, mode: model.ModeAdmin, wantUnrestricted: true},
		{name: "admin impersonating user", role: model.RoleAdmin, mode: model.ModeUser},
		{name: "user in user mode", role: model.RoleUser, mode: model.ModeUser},
		{name: "user with stale admin mode", role: model.RoleUser, mode: model.ModeAdmin},
		{name: "empty role and mode", role: "", mode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := model.User{ID: "user-1", Role: tt.role, ImpersonationMode: tt.mode}
			f := For(u)

			assert.Equal(t, tt.wantUnrestricted, f.IsUnrestricted())
			owner, restricted := f.OwnerID()
			if tt.wantUnrestricted {
				assert.False(t, restricted)
				assert.Equal(t, Unrestricted(), f)
			} else {
				assert.True(t, restricted)
				assert.Equal(t, "user-1", owner)
				assert.Equal(t, OwnerOnly("user-1"), f)
			}
		})
	}
}

func TestFilter_Allows(t *testing.T) {
	mine := &model.Document{ID: "d1", OwnerID: "user-1"}
	theirs := &model.Document{ID: "d2", OwnerID: "user-2"}

	assert.True(t, OwnerOnly("user-1").Allows(mine))
	assert.False(t, OwnerOnly("user-1").Allows(theirs))
	assert.True(t, Unrestricted().Allows(theirs))
	assert.False(t, Unrestricted().Allows(nil))

	var zero Filter
	assert.False(t, zero.Allows(&model.Document{OwnerID: ""}))
}

func TestFilter_Where(t *testing.T) {
	clause, args := OwnerOnly("user-1").Where("d.owner_id", 2)
	assert.Equal(t, "d.owner_id = $2", clause)
	assert.Equal(t, []any{"user-1"}, args)

	clause, args = Unrestricted().Where("d.owner_id", 2)
	assert.Equal(t, "TRUE", clause)
	assert.Empty(t, args)
}
