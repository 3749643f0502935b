package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
)

// The service layer owns transaction boundaries, so its tests open a fake
// database/sql driver whose connections only know how to begin, commit and
// roll back. All data access goes through the in-memory repository fakes
// below.

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{}, nil }

type fakeConnector struct{}

func (fakeConnector) Connect(context.Context) (driver.Conn, error) { return fakeConn{}, nil }

func (fakeConnector) Driver() driver.Driver { return fakeDriver{} }

type fakeConn struct{}

func (fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("fake connection cannot prepare statements")
}
func (fakeConn) Close() error { return nil }

func (fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error { return nil }

func (fakeTx) Rollback() error { return nil }

func newFakeDB() *sql.DB { return sql.OpenDB(fakeConnector{}) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intRef(v int) *int { return &v }

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	f := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		f.tournaments[t.ID] = t
	}
	return f
}

func (f *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	t.ID = len(f.tournaments) + 1
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return f.GetByID(ctx, exec, id)
}

func (f *fakeTournamentRepo) List(context.Context, repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return nil, nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) SetScheduleFlags(_ context.Context, _ repositories.SQLExecutor, id int, generated, incomplete bool) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ScheduleGenerated = generated
	t.ScheduleIncomplete = incomplete
	return nil
}

// ListPendingLifecycleAction mirrors the SQL predicate of the Postgres
// repository so sweep tests exercise the same selection rules.
func (f *fakeTournamentRepo) ListPendingLifecycleAction(_ context.Context, now time.Time) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range f.tournaments {
		inPlay := t.Status == models.StatusRegistrationClosed || t.Status == models.StatusInProgress
		switch {
		case t.Status == models.StatusRegistrationOpen && t.RegistrationDeadline.Before(now):
			out = append(out, t)
		case inPlay && t.EndDate.Before(now):
			out = append(out, t)
		case t.Status == models.StatusInProgress && !t.ScheduleGenerated && t.EndDate.After(now):
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) ExistsForOccurrence(context.Context, int, time.Time) (bool, error) {
	return false, nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
	created []*models.Match
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	f := &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
	for _, m := range matches {
		f.matches[m.ID] = m
		if m.ID >= f.nextID {
			f.nextID = m.ID + 1
		}
	}
	return f
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	m.ID = f.nextID
	f.nextID++
	f.matches[m.ID] = m
	f.created = append(f.created, m)
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return f.GetByID(ctx, exec, id)
}

func (f *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) ListByCategory(_ context.Context, _ repositories.SQLExecutor, categoryConfigID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.CategoryConfigID == categoryConfigID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, m := range f.matches {
		if m.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMatchRepo) CountOpenByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && m.Status.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (f *fakeMatchRepo) UpdateAdvancement(_ context.Context, _ repositories.SQLExecutor, id int, winnerTo, loserTo *int) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.WinnerAdvancesToMatchID = winnerTo
	m.LoserAdvancesToMatchID = loserTo
	return nil
}

func (f *fakeMatchRepo) UpdateTeamSlot(_ context.Context, _ repositories.SQLExecutor, id int, slot int, teamID int) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == 1 {
		m.Team1ID = &teamID
	} else {
		m.Team2ID = &teamID
	}
	return nil
}

func (f *fakeMatchRepo) UpdateSchedule(_ context.Context, _ repositories.SQLExecutor, id int, courtID *int, scheduledTime *time.Time) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.CourtID = courtID
	m.ScheduledTime = scheduledTime
	return nil
}

func (f *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (f *fakeMatchRepo) RecordResult(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	if _, ok := f.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchRepo) CancelOpenByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && m.Status.IsOpen() {
			m.Status = models.MatchCancelled
			count++
		}
	}
	return count, nil
}

type fakeReservationRepo struct {
	releasedMatches []int
}

func (f *fakeReservationRepo) Create(context.Context, repositories.SQLExecutor, *models.CourtReservation) error {
	return nil
}

func (f *fakeReservationRepo) ListActiveByCourtsBetween(context.Context, repositories.SQLExecutor, []int, time.Time, time.Time) ([]*models.CourtReservation, error) {
	return nil, nil
}

func (f *fakeReservationRepo) ReleaseByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	f.releasedMatches = append(f.releasedMatches, matchID)
	return nil
}

func (f *fakeReservationRepo) ReleaseAllByTournament(context.Context, repositories.SQLExecutor, int) (int, error) {
	return 0, nil
}

type fakeCategoryRepo struct {
	categories []*models.CategoryConfig
}

func (f *fakeCategoryRepo) CreateBatch(context.Context, repositories.SQLExecutor, []*models.CategoryConfig) error {
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.CategoryConfig, error) {
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repositories.ErrCategoryNotFound
}

func (f *fakeCategoryRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.CategoryConfig, error) {
	return f.GetByID(ctx, exec, id)
}

func (f *fakeCategoryRepo) ListByTournament(context.Context, repositories.SQLExecutor, int) ([]*models.CategoryConfig, error) {
	return f.categories, nil
}

type fakeTeamRepo struct {
	byCategory map[int][]*models.TournamentTeam
}

func (f *fakeTeamRepo) Create(context.Context, repositories.SQLExecutor, *models.TournamentTeam) error {
	return nil
}

func (f *fakeTeamRepo) GetByID(context.Context, repositories.SQLExecutor, int) (*models.TournamentTeam, error) {
	return nil, repositories.ErrTeamRegistrationNotFound
}

func (f *fakeTeamRepo) CountActiveByCategory(_ context.Context, _ repositories.SQLExecutor, categoryConfigID int) (int, error) {
	return len(f.byCategory[categoryConfigID]), nil
}

func (f *fakeTeamRepo) ListByCategory(_ context.Context, _ repositories.SQLExecutor, categoryConfigID int) ([]*models.TournamentTeam, error) {
	return f.byCategory[categoryConfigID], nil
}

func (f *fakeTeamRepo) ListByTournament(context.Context, repositories.SQLExecutor, int) ([]*models.TournamentTeam, error) {
	return nil, nil
}

func (f *fakeTeamRepo) UpdateSeed(context.Context, repositories.SQLExecutor, int, *int) error {
	return nil
}

func (f *fakeTeamRepo) Deactivate(context.Context, repositories.SQLExecutor, int) error {
	return nil
}

type fakeCourtRepo struct {
	courts []*models.Court
}

func (f *fakeCourtRepo) ListByClub(context.Context, int) ([]*models.Court, error) {
	return f.courts, nil
}

func (f *fakeCourtRepo) GetByID(_ context.Context, id int) (*models.Court, error) {
	for _, c := range f.courts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repositories.ErrCourtNotFound
}

type fakeBookingRepo struct{}

func (fakeBookingRepo) ListConfirmedByCourtsBetween(context.Context, []int, time.Time, time.Time) ([]*models.Booking, error) {
	return nil, nil
}

type fakeStateRepo struct {
	lastSweep *time.Time
}

func (f *fakeStateRepo) Get(context.Context) (*models.EngineState, error) {
	return &models.EngineState{ID: 1, LastSweepAt: f.lastSweep}, nil
}

func (f *fakeStateRepo) SetLastSweep(_ context.Context, at time.Time) error {
	f.lastSweep = &at
	return nil
}

func (f *fakeStateRepo) SetLastSeriesGenerate(context.Context, time.Time) error {
	return nil
}

type captureRatingUpdater struct {
	events []RatingEvent
}

func (c *captureRatingUpdater) RatingsUpdated(_ context.Context, ev RatingEvent) error {
	c.events = append(c.events, ev)
	return nil
}

type captureNotifier struct {
	events []NotificationEvent
}

func (c *captureNotifier) Notify(_ context.Context, ev NotificationEvent) {
	c.events = append(c.events, ev)
}
