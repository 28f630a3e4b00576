package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadra-gg/quadra/models"
)

type registrationFixture struct {
	store    *fakeStore
	notifier *fakeNotifier
	svc      RegistrationService
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewRegistrationService(
		&fakeRegistrationRepo{store: store},
		&fakeTournamentRepo{store: store},
		&fakeTeamRepo{store: store},
		&fakeUserRepo{store: store},
		&fakeTxManager{store: store},
		notifier,
		testLogger(),
	)
	return &registrationFixture{store: store, notifier: notifier, svc: svc}
}

// seedSquad creates a team with the given member count; the first member is
// the leader. User IDs start at base.
func (f *registrationFixture) seedSquad(teamID, base, size int) {
	f.store.teams[teamID] = &models.Team{ID: teamID, Name: "Squad", LeaderID: base}
	for i := 0; i < size; i++ {
		id := base + i
		tid := teamID
		f.store.users[id] = &models.User{
			ID: id, Username: "user", DisplayName: "User",
			Role: models.RolePlayer, TeamID: &tid,
		}
	}
}

func (f *registrationFixture) seedOpenTournament(id, maxTeams int) {
	f.store.tournaments[id] = &models.Tournament{
		ID: id, Title: "Quadra Cup", Game: "pubg",
		MaxTeams: maxTeams, Status: models.TournamentStatusOpen,
	}
}

func TestRegister_Success(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.seedSquad(5, 100, 4)

	reg, err := f.svc.Register(context.Background(), 1, 5, 100, "txn-123")
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusPending, reg.Status)
	assert.Equal(t, "txn-123", reg.TransactionID)
	require.Len(t, reg.Roster, 4)

	leaders := 0
	for _, entry := range reg.Roster {
		if entry.Role == "leader" {
			leaders++
			assert.Equal(t, 100, entry.UserID)
		}
	}
	assert.Equal(t, 1, leaders)
}

func TestRegister_TournamentNotOpen(t *testing.T) {
	f := newRegistrationFixture(t)
	f.store.tournaments[1] = &models.Tournament{
		ID: 1, MaxTeams: 16, Status: models.TournamentStatusCompleted,
	}
	f.seedSquad(5, 100, 4)

	_, err := f.svc.Register(context.Background(), 1, 5, 100, "txn-123")
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestRegister_OnlyLeaderMayRegister(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.seedSquad(5, 100, 4)

	_, err := f.svc.Register(context.Background(), 1, 5, 101, "txn-123")
	assert.ErrorIs(t, err, ErrNotTeamLeader)
}

func TestRegister_RosterTooSmall(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.seedSquad(5, 100, 3)

	_, err := f.svc.Register(context.Background(), 1, 5, 100, "txn-123")
	assert.ErrorIs(t, err, ErrRosterTooSmall)
}

func TestRegister_CrossSquadEnrollment(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.seedSquad(5, 100, 4)
	f.store.rosterConflict = true

	_, err := f.svc.Register(context.Background(), 1, 5, 100, "txn-123")
	assert.ErrorIs(t, err, ErrDuplicateEnrollment)
}

func TestRegister_TransactionRequired(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.seedSquad(5, 100, 4)

	_, err := f.svc.Register(context.Background(), 1, 5, 100, "")
	assert.ErrorIs(t, err, ErrTransactionRequired)
}

func TestRegister_CapacityFull(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 1)
	f.seedSquad(5, 100, 4)
	f.seedSquad(6, 200, 4)
	f.store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 6,
		Status: models.RegistrationStatusApproved,
	}
	f.store.nextRegID = 2

	_, err := f.svc.Register(context.Background(), 1, 5, 100, "txn-123")
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestVerifyRegistration_Approve(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.seedSquad(5, 100, 4)
	f.store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusPending,
	}

	reg, err := f.svc.VerifyRegistration(context.Background(), 1, models.RegistrationStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusApproved, reg.Status)
	assert.Equal(t, models.RegistrationStatusApproved, f.store.regs[1].Status)
	// Лидер команды получает уведомление о решении.
	assert.Contains(t, f.notifier.personal, 100)
}

func TestVerifyRegistration_AlreadyDecided(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 16)
	f.store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusRejected,
	}

	_, err := f.svc.VerifyRegistration(context.Background(), 1, models.RegistrationStatusApproved)
	assert.ErrorIs(t, err, ErrRegistrationDecided)
}

// staleRegistrationRepo serves a read taken before a concurrent decision
// committed: FindByID still shows pending while the stored row is terminal.
type staleRegistrationRepo struct {
	*fakeRegistrationRepo
}

func (r *staleRegistrationRepo) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	reg, err := r.fakeRegistrationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reg.Status = models.RegistrationStatusPending
	return reg, nil
}

// TestVerifyRegistration_RacingDecisionStaysTerminal: the pending check on the
// read path is only a fast path; the write itself refuses to flip a status
// another admin already decided.
func TestVerifyRegistration_RacingDecisionStaysTerminal(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewRegistrationService(
		&staleRegistrationRepo{&fakeRegistrationRepo{store: store}},
		&fakeTournamentRepo{store: store},
		&fakeTeamRepo{store: store},
		&fakeUserRepo{store: store},
		&fakeTxManager{store: store},
		notifier,
		testLogger(),
	)
	store.tournaments[1] = &models.Tournament{ID: 1, MaxTeams: 16, Status: models.TournamentStatusOpen}
	store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusApproved,
	}

	_, err := svc.VerifyRegistration(context.Background(), 1, models.RegistrationStatusRejected)
	assert.ErrorIs(t, err, ErrRegistrationDecided)
	assert.Equal(t, models.RegistrationStatusApproved, store.regs[1].Status)
	assert.Empty(t, notifier.personal)
}

func TestVerifyRegistration_InvalidStatus(t *testing.T) {
	f := newRegistrationFixture(t)

	_, err := f.svc.VerifyRegistration(context.Background(), 1, models.RegistrationStatusPending)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

// TestVerifyRegistration_CapacityRecheck: approval re-counts approved squads
// inside the transaction; the last slot cannot be granted twice.
func TestVerifyRegistration_CapacityRecheck(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 1)
	f.seedSquad(5, 100, 4)
	f.store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 9,
		Status: models.RegistrationStatusApproved,
	}
	f.store.regs[2] = &models.Registration{
		ID: 2, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusPending,
	}
	f.store.nextRegID = 3

	_, err := f.svc.VerifyRegistration(context.Background(), 2, models.RegistrationStatusApproved)
	assert.ErrorIs(t, err, ErrTournamentFull)
	assert.Equal(t, models.RegistrationStatusPending, f.store.regs[2].Status,
		"failed approval must not leak a status change")
}

// Rejection ignores capacity: a full tournament can still reject pending
// registrations.
func TestVerifyRegistration_RejectIgnoresCapacity(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 1)
	f.seedSquad(5, 100, 4)
	f.store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 9,
		Status: models.RegistrationStatusApproved,
	}
	f.store.regs[2] = &models.Registration{
		ID: 2, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusPending,
	}
	f.store.nextRegID = 3

	reg, err := f.svc.VerifyRegistration(context.Background(), 2, models.RegistrationStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRejected, reg.Status)
}

// End-to-end lifecycle with max_teams=1: register, approve, then a second
// squad cannot make it in.
func TestRegistrationLifecycle_SingleSlot(t *testing.T) {
	f := newRegistrationFixture(t)
	f.seedOpenTournament(1, 1)
	f.seedSquad(5, 100, 4)
	f.seedSquad(6, 200, 4)

	first, err := f.svc.Register(context.Background(), 1, 5, 100, "txn-a")
	require.NoError(t, err)

	second, err := f.svc.Register(context.Background(), 1, 6, 200, "txn-b")
	require.NoError(t, err, "pending registrations do not consume capacity")

	_, err = f.svc.VerifyRegistration(context.Background(), first.ID, models.RegistrationStatusApproved)
	require.NoError(t, err)

	_, err = f.svc.VerifyRegistration(context.Background(), second.ID, models.RegistrationStatusApproved)
	assert.ErrorIs(t, err, ErrTournamentFull)
}
