// Package memrepo implements the repository interfaces in memory for tests
// and local experiments. It mirrors the Postgres constraints the services
// rely on: unique emails, one membership per (user, team), one owner per team.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/repository"
)

// Store holds every table. The zero value is not usable; call New.
type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	users       map[string]domain.User
	teams       map[string]domain.Team
	memberships map[string]domain.Membership
	tasks       map[string]domain.Task
	sessions    map[string]domain.Session
	// seq records insertion order so equal timestamps sort deterministically.
	seq  map[string]int
	next int
}

// New returns an empty store. A nil now uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:         now,
		users:       map[string]domain.User{},
		teams:       map[string]domain.Team{},
		memberships: map[string]domain.Membership{},
		tasks:       map[string]domain.Task{},
		sessions:    map[string]domain.Session{},
		seq:         map[string]int{},
	}
}

func (s *Store) newID() string {
	id := uuid.NewString()
	s.next++
	s.seq[id] = s.next
	return id
}

// before orders by timestamp and falls back to insertion order.
func (s *Store) before(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return s.seq[idA] < s.seq[idB]
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Teams returns the team repository.
func (s *Store) Teams() repository.TeamRepository { return teamRepo{s} }

// Memberships returns the membership repository.
func (s *Store) Memberships() repository.MembershipRepository { return membershipRepo{s} }

// Tasks returns the task repository.
func (s *Store) Tasks() repository.TaskRepository { return taskRepo{s} }

// Sessions returns the session repository.
func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s} }

// Transactor runs fn against the store and restores the previous state when fn fails.
func (s *Store) Transactor() repository.Transactor { return transactor{s} }

type snapshot struct {
	teams       map[string]domain.Team
	memberships map[string]domain.Membership
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type transactor struct{ s *Store }

func (t transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	t.s.mu.Lock()
	snap := snapshot{teams: copyMap(t.s.teams), memberships: copyMap(t.s.memberships)}
	t.s.mu.Unlock()

	err := fn(ctx, repository.TxRepositories{Teams: t.s.Teams(), Memberships: t.s.Memberships()})
	if err != nil {
		t.s.mu.Lock()
		t.s.teams = snap.teams
		t.s.memberships = snap.memberships
		t.s.mu.Unlock()
	}
	return err
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	now := r.s.now()
	user.ID = r.s.newID()
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *domain.User) { u.LastLoginAt = &at })
}

func (r userRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(u *domain.User) { u.IsActive = active })
}

func (r userRepo) update(id string, fn func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (s *Store) personRef(userID string) domain.PersonRef {
	u, ok := s.users[userID]
	if !ok {
		return domain.PersonRef{}
	}
	first, last, email := u.FirstName, u.LastName, u.Email
	return domain.PersonRef{FirstName: &first, LastName: &last, Email: &email}
}

// teams

type teamRepo struct{ s *Store }

func (r teamRepo) Create(_ context.Context, team *domain.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	team.ID = r.s.newID()
	team.IsActive = true
	team.CreatedAt, team.UpdatedAt = now, now
	r.s.teams[team.ID] = *team
	return nil
}

func (r teamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok || !t.IsActive {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r teamRepo) GetDetail(_ context.Context, id string) (*domain.TeamDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok || !t.IsActive {
		return nil, pgx.ErrNoRows
	}
	detail := r.s.teamDetail(t)
	return &detail, nil
}

func (s *Store) teamDetail(t domain.Team) domain.TeamDetail {
	detail := domain.TeamDetail{Team: t, Creator: s.personRef(t.CreatedBy)}
	for _, m := range s.memberships {
		if m.TeamID == t.ID && m.Status == domain.MembershipStatusActive {
			detail.MemberCount++
		}
	}
	for _, task := range s.tasks {
		if task.TeamID == t.ID && task.IsActive {
			detail.TaskCount++
		}
	}
	return detail
}

func (r teamRepo) Update(_ context.Context, team *domain.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[team.ID]
	if !ok || !t.IsActive {
		return pgx.ErrNoRows
	}
	t.Name = team.Name
	t.Description = team.Description
	t.UpdatedAt = r.s.now()
	r.s.teams[t.ID] = t
	team.UpdatedAt = t.UpdatedAt
	return nil
}

func (r teamRepo) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok || !t.IsActive {
		return pgx.ErrNoRows
	}
	t.IsActive = false
	t.UpdatedAt = r.s.now()
	r.s.teams[id] = t
	return nil
}

func (r teamRepo) ListByUser(_ context.Context, userID string) ([]domain.UserTeam, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.UserTeam{}
	for _, m := range r.s.memberships {
		if m.UserID != userID || m.Status != domain.MembershipStatusActive {
			continue
		}
		t, ok := r.s.teams[m.TeamID]
		if !ok || !t.IsActive {
			continue
		}
		out = append(out, domain.UserTeam{TeamDetail: r.s.teamDetail(t), Role: m.Role, Status: m.Status})
	}
	sort.SliceStable(out, func(i, j int) bool { return r.s.before(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID) })
	return out, nil
}

// memberships

type membershipRepo struct{ s *Store }

func (r membershipRepo) Create(_ context.Context, membership *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.TeamID != membership.TeamID {
			continue
		}
		if m.UserID == membership.UserID {
			return uniqueViolation("memberships_user_id_team_id_key")
		}
		if m.Role == domain.RoleOwner && membership.Role == domain.RoleOwner {
			return uniqueViolation("uq_memberships_team_owner")
		}
	}
	now := r.s.now()
	membership.ID = r.s.newID()
	if membership.Status == "" {
		membership.Status = domain.MembershipStatusActive
	}
	membership.JoinedAt, membership.CreatedAt, membership.UpdatedAt = now, now, now
	r.s.memberships[membership.ID] = *membership
	return nil
}

func (r membershipRepo) GetByID(_ context.Context, id string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (r membershipRepo) GetByUserAndTeam(_ context.Context, userID, teamID string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.UserID == userID && m.TeamID == teamID {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r membershipRepo) GetActive(_ context.Context, userID, teamID string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.UserID != userID || m.TeamID != teamID || m.Status != domain.MembershipStatusActive {
			continue
		}
		if t, ok := r.s.teams[teamID]; !ok || !t.IsActive {
			break
		}
		if u, ok := r.s.users[userID]; !ok || !u.IsActive {
			break
		}
		return &m, nil
	}
	return nil, pgx.ErrNoRows
}

func (r membershipRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.Membership, error) {
	return r.update(id, func(m *domain.Membership) { m.Role = role })
}

func (r membershipRepo) Reactivate(_ context.Context, id string, role domain.Role, invitedEmail *string) (*domain.Membership, error) {
	return r.update(id, func(m *domain.Membership) {
		m.Role = role
		m.Status = domain.MembershipStatusActive
		m.InvitedEmail = invitedEmail
		m.JoinedAt = r.s.now()
	})
}

func (r membershipRepo) update(id string, fn func(*domain.Membership)) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	fn(&m)
	m.UpdatedAt = r.s.now()
	r.s.memberships[id] = m
	return &m, nil
}

func (r membershipRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.memberships[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.memberships, id)
	return nil
}

var roleRank = map[domain.Role]int{domain.RoleOwner: 0, domain.RoleAdmin: 1, domain.RoleMember: 2}

func (r membershipRepo) ListMembers(_ context.Context, teamID string) ([]domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Member{}
	for _, m := range r.s.memberships {
		if m.TeamID != teamID || m.Status != domain.MembershipStatusActive {
			continue
		}
		u, ok := r.s.users[m.UserID]
		if !ok || !u.IsActive {
			continue
		}
		out = append(out, domain.Member{
			Membership: m,
			Email:      u.Email,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			AvatarURL:  u.AvatarURL,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if roleRank[out[i].Role] != roleRank[out[j].Role] {
			return roleRank[out[i].Role] < roleRank[out[j].Role]
		}
		return r.s.before(out[i].JoinedAt, out[j].JoinedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r membershipRepo) ListByUser(_ context.Context, userID string) ([]domain.UserMembership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.UserMembership{}
	for _, m := range r.s.memberships {
		if m.UserID != userID || m.Status != domain.MembershipStatusActive {
			continue
		}
		t, ok := r.s.teams[m.TeamID]
		if !ok || !t.IsActive {
			continue
		}
		out = append(out, domain.UserMembership{Membership: m, TeamName: t.Name, TeamDescription: t.Description})
	}
	sort.SliceStable(out, func(i, j int) bool { return r.s.before(out[i].JoinedAt, out[j].JoinedAt, out[i].ID, out[j].ID) })
	return out, nil
}

// sessions

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	session := domain.Session{ID: uuid.NewString(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	r.s.sessions[session.ID] = session
	return &session, nil
}

func (r sessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if session.Expired(r.s.now()) {
		delete(r.s.sessions, id)
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}
