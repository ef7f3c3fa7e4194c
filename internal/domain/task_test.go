package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskApplyStatus(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	task.ApplyStatus(TaskStatusCompleted, first)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, first, *task.CompletedAt)

	later := first.Add(time.Hour)
	task.ApplyStatus(TaskStatusCompleted, later)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, later, *task.CompletedAt, "re-saving completed refreshes the timestamp")

	task.ApplyStatus(TaskStatusTodo, later)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, TaskStatusTodo, task.Status)
}

func TestRoleAssignable(t *testing.T) {
	assert.True(t, RoleAdmin.Assignable())
	assert.True(t, RoleMember.Assignable())
	assert.False(t, RoleOwner.Assignable())
	assert.False(t, Role("superuser").Valid())
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}
