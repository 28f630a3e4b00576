package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore — общее in-memory состояние для всех фейковых репозиториев
// одного теста. Мутации идут напрямую; fakeTxManager умеет откатывать
// зафиксированные им снапшоты при ошибке.
type fakeStore struct {
	users       map[int]*models.User
	teams       map[int]*models.Team
	tournaments map[int]*models.Tournament
	regs        map[int]*models.Registration
	matches     map[int]*models.Match
	results     map[int]*models.MatchResult

	nextRegID    int
	nextResultID int
	nextMatchID  int

	rosterConflict bool
	snapshots      []models.ScoreSnapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int]*models.User{},
		teams:        map[int]*models.Team{},
		tournaments:  map[int]*models.Tournament{},
		regs:         map[int]*models.Registration{},
		matches:      map[int]*models.Match{},
		results:      map[int]*models.MatchResult{},
		nextRegID:    1,
		nextResultID: 1,
		nextMatchID:  1,
	}
}

type storeSnapshot struct {
	userStats  map[int]models.PlayerStats
	resultIDs  map[int]bool
	verified   map[int]bool
	matchState map[int]models.MatchStatus
	regState   map[int]models.RegistrationStatus
	tournState map[int]models.TournamentStatus
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		userStats:  map[int]models.PlayerStats{},
		resultIDs:  map[int]bool{},
		verified:   map[int]bool{},
		matchState: map[int]models.MatchStatus{},
		regState:   map[int]models.RegistrationStatus{},
		tournState: map[int]models.TournamentStatus{},
	}
	for id, u := range s.users {
		snap.userStats[id] = u.Stats
	}
	for id, r := range s.results {
		snap.resultIDs[id] = true
		snap.verified[id] = r.IsVerified
	}
	for id, m := range s.matches {
		snap.matchState[id] = m.Status
	}
	for id, r := range s.regs {
		snap.regState[id] = r.Status
	}
	for id, t := range s.tournaments {
		snap.tournState[id] = t.Status
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	for id, stats := range snap.userStats {
		s.users[id].Stats = stats
	}
	for id := range s.results {
		if !snap.resultIDs[id] {
			delete(s.results, id)
			continue
		}
		s.results[id].IsVerified = snap.verified[id]
	}
	for id, status := range snap.matchState {
		s.matches[id].Status = status
	}
	for id, status := range snap.regState {
		s.regs[id].Status = status
	}
	for id, status := range snap.tournState {
		s.tournaments[id].Status = status
	}
}

// fakeTxManager снимает снапшот перед fn и откатывает его при ошибке,
// имитируя транзакционную семантику настоящего TxManager.
type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type broadcastCall struct {
	RoomID  string
	Message interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{RoomID: roomID, Message: message})
}

func (b *fakeBroadcaster) callsForRoom(roomID string) []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastCall
	for _, c := range b.calls {
		if c.RoomID == roomID {
			out = append(out, c)
		}
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	personal []int // user ids
	squads   []int // team ids
}

func (n *fakeNotifier) Dispatch(ctx context.Context, userID int, notificationType, message string, meta models.NotificationMeta) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.personal = append(n.personal, userID)
	return nil
}

func (n *fakeNotifier) DispatchToSquad(ctx context.Context, teamID int, notificationType, message string, meta models.NotificationMeta) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.squads = append(n.squads, teamID)
	return nil
}

type noopAchievements struct{}

func (noopAchievements) CheckAchievements(ctx context.Context, userID int) error { return nil }

type noopStageAdvancer struct{ calls []int }

func (a *noopStageAdvancer) AdvanceStage(ctx context.Context, tournamentID int) error {
	a.calls = append(a.calls, tournamentID)
	return nil
}

// --- фейковые репозитории поверх fakeStore ---

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.store.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListByTeam(ctx context.Context, teamID int) ([]models.User, error) {
	var out []models.User
	for _, u := range r.store.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateStats(ctx context.Context, exec repositories.SQLExecutor, userID int, stats models.PlayerStats) error {
	u, ok := r.store.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Stats = stats
	return nil
}

func (r *fakeUserRepo) UpdateTeam(ctx context.Context, userID int, teamID *int) error {
	u, ok := r.store.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TeamID = teamID
	return nil
}

type fakeTeamRepo struct{ store *fakeStore }

func (r *fakeTeamRepo) Create(ctx context.Context, t *models.Team) error {
	r.store.teams[t.ID] = t
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	t, ok := r.store.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id int) error {
	delete(r.store.teams, id)
	return nil
}

type fakeTournamentRepo struct{ store *fakeStore }

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.store.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.store.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	if _, ok := r.store.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.store.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.store.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.store.tournaments, id)
	return nil
}

type fakeRegistrationRepo struct{ store *fakeStore }

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	for _, existing := range r.store.regs {
		if existing.TournamentID == reg.TournamentID && existing.TeamID == reg.TeamID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = r.store.nextRegID
	r.store.nextRegID++
	r.store.regs[reg.ID] = reg
	return nil
}

func (r *fakeRegistrationRepo) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	reg, ok := r.store.regs[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) FindByTeamAndTournament(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID int) (*models.Registration, error) {
	for _, reg := range r.store.regs {
		if reg.TeamID == teamID && reg.TournamentID == tournamentID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error) {
	var out []*models.Registration
	for _, reg := range r.store.regs {
		if reg.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && reg.Status != *statusFilter {
			continue
		}
		copied := *reg
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRegistrationRepo) CountByTournamentAndStatus(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, status models.RegistrationStatus) (int, error) {
	count := 0
	for _, reg := range r.store.regs {
		if reg.TournamentID == tournamentID && reg.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) HasRosterConflict(ctx context.Context, tournamentID, teamID int, userIDs []int) (bool, error) {
	return r.store.rosterConflict, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	reg, ok := r.store.regs[id]
	if !ok || reg.Status != models.RegistrationStatusPending {
		return repositories.ErrRegistrationDecided
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for id, reg := range r.store.regs {
		if reg.TournamentID == tournamentID {
			delete(r.store.regs, id)
		}
	}
	return nil
}

type fakeMatchRepo struct{ store *fakeStore }

func (r *fakeMatchRepo) Create(ctx context.Context, m *models.Match) error {
	if m.ID == 0 {
		m.ID = r.store.nextMatchID
		r.store.nextMatchID++
	}
	r.store.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	copied.Scores = m.Scores.Normalize()
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.store.matches {
		if m.TournamentID == tournamentID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.store.matches {
		if m.Status == status {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	m, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) AppendScoreSnapshot(ctx context.Context, id int, scores models.TeamScores, snapshot models.ScoreSnapshot) error {
	m, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Scores = scores
	m.History = append(m.History, snapshot)
	r.store.snapshots = append(r.store.snapshots, snapshot)
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for id, m := range r.store.matches {
		if m.TournamentID == tournamentID {
			delete(r.store.matches, id)
		}
	}
	return nil
}

type fakeResultRepo struct{ store *fakeStore }

func (r *fakeResultRepo) Create(ctx context.Context, exec repositories.SQLExecutor, result *models.MatchResult) error {
	for _, existing := range r.store.results {
		if existing.MatchID == result.MatchID && existing.TeamID == result.TeamID {
			return repositories.ErrResultConflict
		}
	}
	result.ID = r.store.nextResultID
	r.store.nextResultID++
	r.store.results[result.ID] = result
	return nil
}

func (r *fakeResultRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.MatchResult, error) {
	result, ok := r.store.results[id]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	copied := *result
	return &copied, nil
}

func (r *fakeResultRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchResult, error) {
	var out []*models.MatchResult
	for _, result := range r.store.results {
		if result.MatchID == matchID {
			copied := *result
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) ListPendingByTournament(ctx context.Context, tournamentID int) ([]*models.MatchResult, error) {
	var out []*models.MatchResult
	for _, result := range r.store.results {
		if result.IsVerified {
			continue
		}
		match, ok := r.store.matches[result.MatchID]
		if !ok || match.TournamentID != tournamentID {
			continue
		}
		copied := *result
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeResultRepo) MarkVerified(ctx context.Context, exec repositories.SQLExecutor, id, adminID int) (int64, error) {
	result, ok := r.store.results[id]
	if !ok || result.IsVerified {
		return 0, nil
	}
	result.IsVerified = true
	result.VerifiedBy = &adminID
	return 1, nil
}

func (r *fakeResultRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for id, result := range r.store.results {
		match, ok := r.store.matches[result.MatchID]
		if ok && match.TournamentID == tournamentID {
			delete(r.store.results, id)
		}
	}
	return nil
}
