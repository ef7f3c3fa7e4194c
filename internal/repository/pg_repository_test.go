package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-task-service/internal/domain"
)

type recordedCall struct {
	sql  string
	args []any
}

// recordingDB captures every statement. Rows scan from row, or fail with
// pgx.ErrNoRows when row is nil.
type recordingDB struct {
	calls    []recordedCall
	row      []any
	affected string
}

func (db *recordingDB) record(sql string, args []any) {
	db.calls = append(db.calls, recordedCall{sql: sql, args: args})
}

func (db *recordingDB) last(t *testing.T) recordedCall {
	t.Helper()
	require.NotEmpty(t, db.calls)
	return db.calls[len(db.calls)-1]
}

func (db *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.record(sql, args)
	tag := db.affected
	if tag == "" {
		tag = "UPDATE 0"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (db *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.record(sql, args)
	return nil, errors.New("query not supported")
}

func (db *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.record(sql, args)
	return fakeRow{values: db.row}
}

type fakeRow struct {
	values []any
}

func (r fakeRow) Scan(dest ...any) error {
	if r.values == nil {
		return pgx.ErrNoRows
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func TestMembershipRepository_GetActiveRequiresActiveTeamAndUser(t *testing.T) {
	db := &recordingDB{}
	repo := NewMembershipRepository(db)

	_, err := repo.GetActive(context.Background(), "user-1", "team-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	call := db.last(t)
	for _, want := range []string{
		"JOIN teams t ON t.id = ms.team_id AND t.is_active",
		"JOIN users u ON u.id = ms.user_id AND u.is_active",
		"ms.status='active'",
		"ms.user_id=$1 AND ms.team_id=$2",
	} {
		assert.Contains(t, call.sql, want)
	}
	if diff := cmp.Diff([]any{"user-1", "team-1"}, call.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestMembershipRepository_Reactivate(t *testing.T) {
	db := &recordingDB{}
	repo := NewMembershipRepository(db)
	email := strPtr("new@example.com")

	_, err := repo.Reactivate(context.Background(), "ms-1", domain.RoleAdmin, email)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	call := db.last(t)
	assert.Contains(t, call.sql, "SET status='active', role=$1, invited_email=$2")
	assert.Contains(t, call.sql, "joined_at=NOW()")
	assert.Contains(t, call.sql, "WHERE id=$3")
	assert.Contains(t, call.sql, "RETURNING "+membershipColumns)
	if diff := cmp.Diff([]any{domain.RoleAdmin, email, "ms-1"}, call.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestMembershipRepository_DeleteReportsMissingRow(t *testing.T) {
	db := &recordingDB{affected: "DELETE 0"}
	repo := NewMembershipRepository(db)

	assert.ErrorIs(t, repo.Delete(context.Background(), "ms-1"), pgx.ErrNoRows)

	db.affected = "DELETE 1"
	assert.NoError(t, repo.Delete(context.Background(), "ms-1"))
	assert.Equal(t, "DELETE FROM memberships WHERE id=$1", db.last(t).sql)
}

func TestTeamRepository_ActiveOnly(t *testing.T) {
	db := &recordingDB{}
	repo := NewTeamRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "team-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Contains(t, db.last(t).sql, "WHERE id=$1 AND is_active")

	_, err = repo.GetDetail(ctx, "team-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Contains(t, db.last(t).sql, "WHERE t.id=$1 AND t.is_active")

	err = repo.SoftDelete(ctx, "team-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	call := db.last(t)
	assert.Contains(t, call.sql, "SET is_active=FALSE")
	assert.Contains(t, call.sql, "WHERE id=$1 AND is_active")
	if diff := cmp.Diff([]any{"team-1"}, call.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestUserRepository_Statements(t *testing.T) {
	db := &recordingDB{}
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "Ann@Example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Contains(t, db.last(t).sql, "WHERE email=LOWER($1)")

	db.affected = "UPDATE 1"
	require.NoError(t, repo.SetActive(ctx, "user-1", false))
	call := db.last(t)
	assert.Contains(t, call.sql, "SET is_active=$1")
	if diff := cmp.Diff([]any{false, "user-1"}, call.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestPgSessionRepository_Get(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("unknown", func(t *testing.T) {
		db := &recordingDB{}
		repo := &pgSessionRepository{db: db, now: func() time.Time { return now }}
		_, err := repo.Get(ctx, "sid-1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expired row is removed", func(t *testing.T) {
		raw, err := json.Marshal(sessionPayload{UserID: "user-1", CreatedAt: now.Add(-2 * time.Hour)})
		require.NoError(t, err)
		db := &recordingDB{row: []any{raw, now.Add(-time.Minute)}}
		repo := &pgSessionRepository{db: db, now: func() time.Time { return now }}

		_, err = repo.Get(ctx, "sid-1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		call := db.last(t)
		assert.Equal(t, "DELETE FROM session WHERE sid=$1", call.sql)
		assert.Equal(t, []any{"sid-1"}, call.args)
	})

	t.Run("live", func(t *testing.T) {
		raw, err := json.Marshal(sessionPayload{UserID: "user-1", CreatedAt: now})
		require.NoError(t, err)
		expire := now.Add(time.Hour)
		db := &recordingDB{row: []any{raw, expire}}
		repo := &pgSessionRepository{db: db, now: func() time.Time { return now }}

		session, err := repo.Get(ctx, "sid-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
		assert.True(t, session.ExpiresAt.Equal(expire))
		assert.Len(t, db.calls, 1)
	})
}
