package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
)

// memStore is an in-memory database shared by the fake repositories.
// WithinTx holds txMu for the whole callback, which serializes transactions
// the way row locks serialize them in Postgres, and restores a snapshot on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID  int
	teams   map[int]models.Team
	matches map[int]models.Match
	users   map[int]models.User
	stats   map[int]models.Statistics

	lockedTeams []int

	failUpdateAggregates error
}

func newMemStore() *memStore {
	return &memStore{
		teams:   map[int]models.Team{},
		matches: map[int]models.Match{},
		users:   map[int]models.User{},
		stats:   map[int]models.Statistics{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	nextID  int
	teams   map[int]models.Team
	matches map[int]models.Match
	users   map[int]models.User
	stats   map[int]models.Statistics
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		nextID:  s.nextID,
		teams:   make(map[int]models.Team, len(s.teams)),
		matches: make(map[int]models.Match, len(s.matches)),
		users:   make(map[int]models.User, len(s.users)),
		stats:   make(map[int]models.Statistics, len(s.stats)),
	}
	for k, v := range s.teams {
		snap.teams[k] = v
	}
	for k, v := range s.matches {
		snap.matches[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.stats {
		snap.stats[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.teams = snap.teams
	s.matches = snap.matches
	s.users = snap.users
	s.stats = snap.stats
}

func (s *memStore) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// ---- teams ----

type memTeamRepo struct{ s *memStore }

func (r memTeamRepo) withMembers(t models.Team) *models.Team {
	t.MemberIDs = []int{}
	for _, u := range r.s.users {
		if u.TeamID != nil && *u.TeamID == t.ID {
			t.MemberIDs = append(t.MemberIDs, u.ID)
		}
	}
	sort.Ints(t.MemberIDs)
	return &t
}

func (r memTeamRepo) nameTaken(name string, exceptID int) bool {
	for _, t := range r.s.teams {
		if t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (r memTeamRepo) captainMissing(captainID *int) bool {
	if captainID == nil {
		return false
	}
	_, ok := r.s.users[*captainID]
	return !ok
}

func (r memTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(team.Name, 0) {
		return repositories.ErrTeamNameConflict
	}
	if r.captainMissing(team.CaptainID) {
		return repositories.ErrTeamCaptainInvalid
	}
	team.ID = r.s.id()
	team.CreatedAt = time.Now().UTC()
	team.MemberIDs = []int{}
	r.s.teams[team.ID] = *team
	return nil
}

func (r memTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return r.withMembers(t), nil
}

func (r memTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lockedTeams = append(r.s.lockedTeams, id)
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	t.MemberIDs = []int{}
	return &t, nil
}

func (r memTeamRepo) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		out = append(out, r.withMembers(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memTeamRepo) ListStandings(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Team, error) {
	out, _ := r.List(ctx, exec)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.MatchesPlayed != b.MatchesPlayed {
			return a.MatchesPlayed < b.MatchesPlayed
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r memTeamRepo) Update(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.teams[team.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if r.nameTaken(team.Name, team.ID) {
		return repositories.ErrTeamNameConflict
	}
	if r.captainMissing(team.CaptainID) {
		return repositories.ErrTeamCaptainInvalid
	}
	stored.Name = team.Name
	stored.CaptainID = team.CaptainID
	stored.Points = team.Points
	stored.MatchesPlayed = team.MatchesPlayed
	r.s.teams[team.ID] = stored
	return nil
}

func (r memTeamRepo) UpdateAggregates(ctx context.Context, exec repositories.SQLExecutor, id, points, matchesPlayed int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failUpdateAggregates != nil {
		return r.s.failUpdateAggregates
	}
	stored, ok := r.s.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	stored.Points = points
	stored.MatchesPlayed = matchesPlayed
	r.s.teams[id] = stored
	return nil
}

func (r memTeamRepo) UpdateLogoKey(ctx context.Context, exec repositories.SQLExecutor, id int, logoKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	stored.LogoKey = logoKey
	r.s.teams[id] = stored
	return nil
}

func (r memTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.s.teams, id)
	for uid, u := range r.s.users {
		if u.TeamID != nil && *u.TeamID == id {
			u.TeamID = nil
			r.s.users[uid] = u
		}
	}
	return nil
}

// ---- matches ----

type memMatchRepo struct{ s *memStore }

func (r memMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if match.Team1ID == match.Team2ID {
		return repositories.ErrMatchSameTeams
	}
	match.ID = r.s.id()
	match.CreatedAt = time.Now().UTC()
	r.s.matches[match.ID] = *match
	return nil
}

func (r memMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r memMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r memMatchRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		m := m
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.TeamID != nil && m.Team1ID != *filter.TeamID && m.Team2ID != *filter.TeamID {
			continue
		}
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Team1ID == match.Team2ID {
		return repositories.ErrMatchSameTeams
	}
	match.CreatedAt = stored.CreatedAt
	r.s.matches[match.ID] = *match
	return nil
}

func (r memMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.s.matches, id)
	return nil
}

// ---- users ----

type memUserRepo struct{ s *memStore }

func (r memUserRepo) conflict(u *models.User) error {
	for _, other := range r.s.users {
		if other.ID == u.ID {
			continue
		}
		if other.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
		if other.Nickname == u.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	if u.TeamID != nil {
		if _, ok := r.s.teams[*u.TeamID]; !ok {
			return repositories.ErrUserTeamInvalid
		}
	}
	return nil
}

func (r memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.conflict(user); err != nil {
		return err
	}
	user.ID = r.s.id()
	user.CreatedAt = time.Now().UTC()
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r memUserRepo) list(match func(models.User) bool) []models.User {
	out := make([]models.User, 0)
	for _, u := range r.s.users {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memUserRepo) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(models.User) bool { return true }), nil
}

func (r memUserRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(u models.User) bool { return u.TeamID != nil && *u.TeamID == teamID }), nil
}

func (r memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	if err := r.conflict(user); err != nil {
		return err
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) SetTeam(ctx context.Context, userID int, teamID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if teamID != nil {
		if _, ok := r.s.teams[*teamID]; !ok {
			return repositories.ErrUserTeamInvalid
		}
	}
	u.TeamID = teamID
	r.s.users[userID] = u
	return nil
}

func (r memUserRepo) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.s.users, id)
	delete(r.s.stats, id)
	for tid, t := range r.s.teams {
		if t.CaptainID != nil && *t.CaptainID == id {
			t.CaptainID = nil
			r.s.teams[tid] = t
		}
	}
	return nil
}

// ---- statistics ----

type memStatsRepo struct{ s *memStore }

func (r memStatsRepo) Upsert(ctx context.Context, stats *models.Statistics) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[stats.UserID]; !ok {
		return repositories.ErrStatisticsUserInvalid
	}
	if existing, ok := r.s.stats[stats.UserID]; ok {
		stats.ID = existing.ID
	} else {
		stats.ID = r.s.id()
	}
	stats.UpdatedAt = time.Now().UTC()
	r.s.stats[stats.UserID] = *stats
	return nil
}

func (r memStatsRepo) GetByUserID(ctx context.Context, userID int) (*models.Statistics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stats[userID]
	if !ok {
		return nil, repositories.ErrStatisticsNotFound
	}
	return &st, nil
}

func (r memStatsRepo) List(ctx context.Context) ([]*models.Statistics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Statistics, 0, len(r.s.stats))
	for _, st := range r.s.stats {
		st := st
		out = append(out, &st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Goals != out[j].Goals {
			return out[i].Goals > out[j].Goals
		}
		if out[i].Assists != out[j].Assists {
			return out[i].Assists > out[j].Assists
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r memStatsRepo) DeleteByUserID(ctx context.Context, userID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stats[userID]; !ok {
		return repositories.ErrStatisticsNotFound
	}
	delete(r.s.stats, userID)
	return nil
}

// ---- storage and events ----

type fakeUploader struct {
	mu        sync.Mutex
	uploaded  map[string]string
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: map[string]string{}}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded[key] = string(body)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: "etag"}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	return u.deleteErr
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type publishedEvent struct {
	Type    string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Payload: payload})
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ---- fixtures ----

type fixture struct {
	store     *memStore
	teams     memTeamRepo
	matches   memMatchRepo
	users     memUserRepo
	stats     memStatsRepo
	uploader  *fakeUploader
	publisher *fakePublisher
	engine    *StandingsEngine
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{
		store:     store,
		teams:     memTeamRepo{s: store},
		matches:   memMatchRepo{s: store},
		users:     memUserRepo{s: store},
		stats:     memStatsRepo{s: store},
		uploader:  newFakeUploader(),
		publisher: &fakePublisher{},
	}
	f.engine = NewStandingsEngine(f.teams, f.uploader, nil)
	return f
}

func (f *fixture) matchService() MatchService {
	return NewMatchService(f.store, f.matches, f.teams, f.engine, f.publisher, nil)
}

func (f *fixture) teamService() TeamService {
	return NewTeamService(f.store, f.teams, f.users, f.uploader, nil)
}

func (f *fixture) seedTeam(name string, points, played int) int {
	team := &models.Team{Name: name, Points: points, MatchesPlayed: played}
	if err := f.teams.Create(context.Background(), nil, team); err != nil {
		panic(err)
	}
	return team.ID
}

func (f *fixture) seedUser(nickname string) int {
	user := &models.User{
		FirstName: "Test",
		LastName:  nickname,
		Nickname:  nickname,
		Email:     nickname + "@example.com",
		Role:      models.RolePlayer,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user.ID
}

func (f *fixture) seedMatch(team1, team2 int, status models.MatchStatus) int {
	match := &models.Match{
		Team1ID:   team1,
		Team2ID:   team2,
		MatchDate: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC),
		Status:    status,
	}
	if err := f.matches.Create(context.Background(), nil, match); err != nil {
		panic(err)
	}
	return match.ID
}

func (f *fixture) team(id int) models.Team {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	t, ok := f.store.teams[id]
	if !ok {
		panic(fmt.Sprintf("team %d not found", id))
	}
	return t
}

var errBoom = errors.New("boom")

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func statusPtr(s models.MatchStatus) *models.MatchStatus { return &s }
