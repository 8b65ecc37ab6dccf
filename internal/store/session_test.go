package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var started = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func createSession(t *testing.T, s *Store, exercise string, at time.Time) *Session {
	t.Helper()
	sess := &Session{Exercise: exercise, StartedAt: at, TargetPerSide: 5, Sides: 2}
	require.NoError(t, s.Sessions().Create(sess))
	return sess
}

func TestSessions_CreateAndGet(t *testing.T) {
	s := newTestStore(t)

	sess := createSession(t, s, "neck-tilt", started)
	require.NotEmpty(t, sess.ID)

	got, err := s.Sessions().GetByID(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "neck-tilt", got.Exercise)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Nil(t, got.EndedAt)
	assert.False(t, got.Completed)
	assert.Equal(t, 2, got.Sides)
}

func TestSessions_Update(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s, "neck-tilt", started)

	ended := started.Add(4 * time.Minute)
	sess.EndedAt = &ended
	sess.RepsLeft, sess.RepsRight = 5, 5
	sess.Completed = true
	require.NoError(t, s.Sessions().Update(sess))

	got, err := s.Sessions().GetByID(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(ended))
	assert.Equal(t, 10, got.Total())
	assert.True(t, got.Completed)

	missing := &Session{ID: "nope"}
	assert.ErrorIs(t, s.Sessions().Update(missing), ErrNotFound)
}

func TestSessions_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first := createSession(t, s, "neck-tilt", started)
	second := createSession(t, s, "shoulder-shrug", started.Add(time.Hour))
	third := createSession(t, s, "neck-stretch", started.Add(2*time.Hour))

	all, err := s.Sessions().List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	limited, err := s.Sessions().List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSessions_DeleteCascadesReps(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s, "neck-tilt", started)
	require.NoError(t, s.Reps().Add(&Rep{SessionID: sess.ID, Direction: "left", Count: 1, HoldMs: 3000, CompletedAt: started}))

	require.NoError(t, s.Sessions().Delete(sess.ID))

	reps, err := s.Reps().ListBySession(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, reps)
	assert.ErrorIs(t, s.Sessions().Delete(sess.ID), ErrNotFound)
}

func TestSessions_Stats(t *testing.T) {
	s := newTestStore(t)

	finish := func(sess *Session, left, right int, completed bool) {
		end := sess.StartedAt.Add(time.Minute)
		sess.EndedAt = &end
		sess.RepsLeft, sess.RepsRight, sess.Completed = left, right, completed
		require.NoError(t, s.Sessions().Update(sess))
	}

	finish(createSession(t, s, "neck-tilt", started), 5, 5, true)
	finish(createSession(t, s, "neck-tilt", started.Add(time.Hour)), 2, 0, false)
	finish(createSession(t, s, "shoulder-shrug", started), 0, 4, false)
	createSession(t, s, "neck-stretch", started) // still open

	stats, err := s.Sessions().Stats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, ExerciseStats{Exercise: "neck-tilt", Sessions: 2, Completed: 1, Reps: 12}, stats[0])
	assert.Equal(t, ExerciseStats{Exercise: "shoulder-shrug", Sessions: 1, Completed: 0, Reps: 4}, stats[1])
}

func TestReps_AddAndList(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s, "neck-tilt", started)

	for i, dir := range []string{"left", "right", "left"} {
		rep := &Rep{SessionID: sess.ID, Direction: dir, Count: i/2 + 1, HoldMs: 3000, CompletedAt: started.Add(time.Duration(i) * 10 * time.Second)}
		require.NoError(t, s.Reps().Add(rep))
		assert.NotZero(t, rep.ID)
	}

	reps, err := s.Reps().ListBySession(sess.ID)
	require.NoError(t, err)
	require.Len(t, reps, 3)
	assert.Equal(t, "right", reps[1].Direction)
	assert.Equal(t, int64(3000), reps[2].HoldMs)
}

func TestReps_RejectsUnknownSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Reps().Add(&Rep{SessionID: "ghost", Direction: "left", Count: 1, CompletedAt: started})
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Settings().Get(SettingLastExercise)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "neck-tilt", s.Settings().GetOr(SettingLastExercise, "neck-tilt"))

	require.NoError(t, s.Settings().Set(SettingLastExercise, "shoulder-shrug"))
	require.NoError(t, s.Settings().Set(SettingLastExercise, "neck-stretch"))

	v, err := s.Settings().Get(SettingLastExercise)
	require.NoError(t, err)
	assert.Equal(t, "neck-stretch", v)
}
