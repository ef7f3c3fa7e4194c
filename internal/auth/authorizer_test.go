package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-task-service/internal/domain"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

type stubLookup map[string]*domain.Membership

func (s stubLookup) GetActive(_ context.Context, userID, teamID string) (*domain.Membership, error) {
	if userID == "broken" {
		return nil, errors.New("connection reset")
	}
	m, ok := s[userID+"/"+teamID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func TestTeamAuthorizer(t *testing.T) {
	ctx := context.Background()
	authz := NewTeamAuthorizer(stubLookup{
		"owner/t1":  {UserID: "owner", TeamID: "t1", Role: domain.RoleOwner},
		"admin/t1":  {UserID: "admin", TeamID: "t1", Role: domain.RoleAdmin},
		"member/t1": {UserID: "member", TeamID: "t1", Role: domain.RoleMember},
	})

	tests := []struct {
		name    string
		actor   string
		level   Level
		denied  string
		wantErr string
	}{
		{name: "owner passes owner", actor: "owner", level: LevelOwner},
		{name: "owner passes admin", actor: "owner", level: LevelAdmin},
		{name: "admin passes admin", actor: "admin", level: LevelAdmin},
		{name: "member passes member", actor: "member", level: LevelMember},
		{name: "admin fails owner", actor: "admin", level: LevelOwner, wantErr: msgNotOwner},
		{name: "member fails admin", actor: "member", level: LevelAdmin, wantErr: msgNotAdmin},
		{name: "stranger fails member", actor: "stranger", level: LevelMember, wantErr: msgNotMember},
		{name: "stranger fails admin", actor: "stranger", level: LevelAdmin, wantErr: msgNotMember},
		{name: "custom message", actor: "member", level: LevelAdmin, denied: "You do not have permission to add members", wantErr: "You do not have permission to add members"},
		{name: "custom message for stranger", actor: "stranger", level: LevelAdmin, denied: "You do not have permission to add members", wantErr: "You do not have permission to add members"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := authz.Require(ctx, tt.actor, "t1", tt.level, tt.denied)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.actor, m.UserID)
				return
			}
			require.Error(t, err)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
			assert.Equal(t, tt.wantErr, de.Message)
		})
	}

	t.Run("storage errors pass through", func(t *testing.T) {
		_, err := authz.RequireMember(ctx, "broken", "t1")
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, apperrors.ToDomainError(err).HTTPStatus)
	})
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(domain.RoleOwner, LevelOwner))
	assert.False(t, Allows(domain.RoleAdmin, LevelOwner))
	assert.True(t, Allows(domain.RoleAdmin, LevelMember))
	assert.False(t, Allows(domain.Role("guest"), LevelMember))
}
