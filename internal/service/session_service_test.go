package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type sessionRepoStub struct {
	items   map[string]models.Session
	deleted []string
}

func newSessionRepoStub(sessions ...models.Session) *sessionRepoStub {
	repo := &sessionRepoStub{items: map[string]models.Session{}}
	for _, s := range sessions {
		repo.items[s.ID] = s
	}
	return repo
}

func (r *sessionRepoStub) List(_ context.Context, filter models.SessionFilter) ([]models.Session, error) {
	var out []models.Session
	for _, s := range r.items {
		if filter.Term != "" && s.Term != filter.Term {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *sessionRepoStub) FindByID(_ context.Context, id string) (*models.Session, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *sessionRepoStub) Create(_ context.Context, session *models.Session) error {
	session.ID = "manual-1"
	r.items[session.ID] = *session
	return nil
}

func (r *sessionRepoStub) Update(_ context.Context, session *models.Session) error {
	r.items[session.ID] = *session
	return nil
}

func (r *sessionRepoStub) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type findStub[T any] map[string]T

func (s findStub[T]) FindByID(_ context.Context, id string) (*T, error) {
	v, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &v, nil
}

func sessionRefs() SessionReferences {
	return SessionReferences{
		Subjects:  findStub[models.Subject]{"S1": {ID: "S1"}},
		Teachers:  findStub[models.Teacher]{"T1": {ID: "T1"}},
		Rooms:     findStub[models.Room]{"R1": {ID: "R1"}},
		TimeSlots: findStub[models.TimeSlot]{"TS1": {ID: "TS1"}},
	}
}

func validClassRequest() ClassRequest {
	return ClassRequest{SubjectID: "S1", TeacherID: "T1", RoomID: "R1", TimeSlotID: "TS1", Day: "Sat", Term: "Fall2024"}
}

func TestSessionServiceCreateIsOverride(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, sessionRefs(), nil, nil)

	session, err := svc.Create(context.Background(), validClassRequest())
	require.NoError(t, err)
	assert.True(t, session.IsOverride)
	assert.Equal(t, models.Saturday, session.Day)
	assert.True(t, repo.items["manual-1"].IsOverride)
}

func TestSessionServiceCreateUnknownReferences(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), sessionRefs(), nil, nil)

	req := validClassRequest()
	req.TeacherID = "T9"
	req.RoomID = "R9"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "teacher T9")
	assert.Contains(t, err.Error(), "room R9")
}

func TestSessionServiceCreateInvalidDay(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), sessionRefs(), nil, nil)

	req := validClassRequest()
	req.Day = "Monday"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSessionServiceUpdatePromotesGenerated(t *testing.T) {
	repo := newSessionRepoStub(models.Session{ID: "gen-1", SubjectID: "S1", Day: models.Monday, Term: "Fall2024"})
	svc := NewSessionService(repo, sessionRefs(), nil, nil)

	req := validClassRequest()
	req.Day = "Wed"
	session, err := svc.Update(context.Background(), "gen-1", req)
	require.NoError(t, err)
	assert.True(t, session.IsOverride)
	assert.Equal(t, models.Wednesday, repo.items["gen-1"].Day)

	_, err = svc.Update(context.Background(), "missing", req)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSessionServiceDelete(t *testing.T) {
	repo := newSessionRepoStub(
		models.Session{ID: "manual", IsOverride: true},
		models.Session{ID: "generated"},
	)
	svc := NewSessionService(repo, sessionRefs(), nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "manual"))
	assert.Equal(t, []string{"manual"}, repo.deleted)

	err := svc.Delete(context.Background(), "generated")
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))

	err = svc.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Len(t, repo.deleted, 1)
}

func TestSessionServiceListByTerm(t *testing.T) {
	repo := newSessionRepoStub(
		models.Session{ID: "a", Term: "Fall2024"},
		models.Session{ID: "b", Term: "Spring2025"},
	)
	svc := NewSessionService(repo, sessionRefs(), nil, nil)

	sessions, err := svc.List(context.Background(), "Spring2025")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "b", sessions[0].ID)
}
