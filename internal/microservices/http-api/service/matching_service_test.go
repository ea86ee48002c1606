package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"popcult/internal/microservices/http-api/dto"
	"popcult/internal/microservices/http-api/models"
	"popcult/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository mocks repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateWithCreator(ctx context.Context, session *models.MatchingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*models.MatchingSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchingSession), args.Error(1)
}

func (m *MockSessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Join(ctx context.Context, sessionID, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) IsParticipant(ctx context.Context, sessionID, userID string) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) CountParticipants(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) ListParticipants(ctx context.Context, sessionID string) ([]models.SessionParticipant, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionParticipant), args.Error(1)
}

func (m *MockSessionRepository) Close(ctx context.Context, sessionID, status string, matchedMovieID *string) error {
	args := m.Called(ctx, sessionID, status, matchedMovieID)
	return args.Error(0)
}

// MockSwipeRepository mocks repository.SwipeRepository
type MockSwipeRepository struct {
	mock.Mock
}

func (m *MockSwipeRepository) Record(ctx context.Context, sessionID, userID, movieID string, liked bool) (*models.Swipe, []models.MatchResult, error) {
	args := m.Called(ctx, sessionID, userID, movieID, liked)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Swipe), args.Get(1).([]models.MatchResult), args.Error(2)
}

func (m *MockSwipeRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMatchResultRepository mocks repository.MatchResultRepository
type MockMatchResultRepository struct {
	mock.Mock
}

func (m *MockMatchResultRepository) ListBySession(ctx context.Context, sessionID string) ([]models.MatchResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MatchResult), args.Error(1)
}

// MockMovieRepository mocks repository.MovieRepository
type MockMovieRepository struct {
	mock.Mock
}

func (m *MockMovieRepository) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func (m *MockMovieRepository) GetByTMDBID(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	args := m.Called(ctx, tmdbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func (m *MockMovieRepository) Upsert(ctx context.Context, movie *models.Movie) error {
	args := m.Called(ctx, movie)
	return args.Error(0)
}

func (m *MockMovieRepository) ListByFilters(ctx context.Context, filters repository.MovieFilters, limit int) ([]models.Movie, error) {
	args := m.Called(ctx, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Movie), args.Error(1)
}

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishResults(ctx context.Context, sessionID string, event ResultsUpdateEvent) error {
	args := m.Called(ctx, sessionID, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func newTestService(sessionRepo *MockSessionRepository, swipeRepo *MockSwipeRepository, resultRepo *MockMatchResultRepository, movieRepo *MockMovieRepository, publisher *MockPublisher) MatchingService {
	return NewMatchingService(sessionRepo, swipeRepo, resultRepo, movieRepo, publisher, testLogger())
}

func openSession(id, creatorID, status string) *models.MatchingSession {
	return &models.MatchingSession{
		ID:        id,
		CreatorID: creatorID,
		Status:    status,
		Creator:   models.User{ID: creatorID, Username: "creator"},
	}
}

func TestCreateSession_StartsWaitingWithCreator(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), new(MockMovieRepository), new(MockPublisher))

	sessionRepo.On("CreateWithCreator", mock.Anything, mock.MatchedBy(func(s *models.MatchingSession) bool {
		return s.CreatorID == "user-1" && s.Status == models.SessionStatusWaiting
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.MatchingSession).ID = "session-1"
	}).Return(nil)
	sessionRepo.On("GetByID", mock.Anything, "session-1").Return(openSession("session-1", "user-1", models.SessionStatusWaiting), nil)
	sessionRepo.On("CountParticipants", mock.Anything, "session-1").Return(int64(1), nil)

	resp, err := service.CreateSession(context.Background(), "user-1", dto.CreateSessionRequest{Name: "Friday night"})

	assert.NoError(t, err)
	assert.Equal(t, "session-1", resp.ID)
	assert.Equal(t, models.SessionStatusWaiting, resp.Status)
	assert.Equal(t, int64(1), resp.ParticipantCount)
	sessionRepo.AssertExpectations(t)
}

func TestJoinSession_ClosedSessionRejected(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), new(MockMovieRepository), new(MockPublisher))

	sessionRepo.On("Join", mock.Anything, "session-1", "user-2").Return(ErrSessionClosed)

	_, err := service.JoinSession(context.Background(), "session-1", "user-2")

	assert.ErrorIs(t, err, ErrSessionClosed)
	sessionRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestJoinSession_ReturnsFreshState(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), new(MockMovieRepository), new(MockPublisher))

	sessionRepo.On("Join", mock.Anything, "session-1", "user-2").Return(nil)
	sessionRepo.On("GetByID", mock.Anything, "session-1").
		Return(openSession("session-1", "user-1", models.SessionStatusActive), nil)
	sessionRepo.On("CountParticipants", mock.Anything, "session-1").Return(int64(2), nil)

	resp, err := service.JoinSession(context.Background(), "session-1", "user-2")

	assert.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, resp.Status)
	assert.Equal(t, int64(2), resp.ParticipantCount)
	sessionRepo.AssertExpectations(t)
}

func TestJoinSession_MissingSession(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), new(MockMovieRepository), new(MockPublisher))

	sessionRepo.On("Join", mock.Anything, "nope", "user-2").Return(ErrSessionNotFound)

	_, err := service.JoinSession(context.Background(), "nope", "user-2")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSwipe_PublishesRankedResults(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	swipeRepo := new(MockSwipeRepository)
	publisher := new(MockPublisher)
	service := newTestService(sessionRepo, swipeRepo, new(MockMatchResultRepository), new(MockMovieRepository), publisher)

	now := time.Now().UTC()
	swipe := &models.Swipe{SessionID: "session-1", UserID: "user-2", MovieID: "movie-1", Liked: true, CreatedAt: now, UpdatedAt: now}
	results := []models.MatchResult{
		{SessionID: "session-1", MovieID: "movie-1", LikesCount: 2, MatchPercentage: 66.67, Movie: models.Movie{ID: "movie-1", Title: "Heat"}},
		{SessionID: "session-1", MovieID: "movie-2", LikesCount: 1, MatchPercentage: 33.33, Movie: models.Movie{ID: "movie-2", Title: "Ran"}},
	}

	swipeRepo.On("Record", mock.Anything, "session-1", "user-2", "movie-1", true).Return(swipe, results, nil)
	publisher.On("PublishResults", mock.Anything, "session-1", mock.MatchedBy(func(event ResultsUpdateEvent) bool {
		return event.Swipe.UserID == "user-2" &&
			event.Swipe.MovieID == "movie-1" &&
			event.Swipe.Liked &&
			len(event.Results) == 2 &&
			event.Results[0].Title == "Heat"
	})).Return(nil)

	resp, err := service.Swipe(context.Background(), "session-1", "user-2", "movie-1", true)

	assert.NoError(t, err)
	assert.True(t, resp.Swipe.Liked)
	assert.Len(t, resp.Results, 2)
	// Ranking order from the repository is preserved verbatim.
	assert.Equal(t, "movie-1", resp.Results[0].MovieID)
	assert.Equal(t, 66.67, resp.Results[0].MatchPercentage)
	publisher.AssertExpectations(t)
}

func TestSwipe_RejectionsDoNotPublish(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"not a participant", ErrNotAParticipant},
		{"session closed", ErrSessionClosed},
		{"movie missing", ErrMovieNotFound},
		{"session missing", ErrSessionNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			swipeRepo := new(MockSwipeRepository)
			publisher := new(MockPublisher)
			service := newTestService(new(MockSessionRepository), swipeRepo, new(MockMatchResultRepository), new(MockMovieRepository), publisher)

			swipeRepo.On("Record", mock.Anything, "session-1", "user-2", "movie-1", true).
				Return(nil, nil, tc.err)

			_, err := service.Swipe(context.Background(), "session-1", "user-2", "movie-1", true)

			assert.ErrorIs(t, err, tc.err)
			publisher.AssertNotCalled(t, "PublishResults", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSwipe_PublishFailureStillSucceeds(t *testing.T) {
	swipeRepo := new(MockSwipeRepository)
	publisher := new(MockPublisher)
	service := newTestService(new(MockSessionRepository), swipeRepo, new(MockMatchResultRepository), new(MockMovieRepository), publisher)

	swipe := &models.Swipe{SessionID: "session-1", UserID: "user-2", MovieID: "movie-1", Liked: false}
	swipeRepo.On("Record", mock.Anything, "session-1", "user-2", "movie-1", false).
		Return(swipe, []models.MatchResult{}, nil)
	publisher.On("PublishResults", mock.Anything, "session-1", mock.Anything).
		Return(errors.New("redis down"))

	resp, err := service.Swipe(context.Background(), "session-1", "user-2", "movie-1", false)

	assert.NoError(t, err)
	assert.False(t, resp.Swipe.Liked)
}

func TestResults_MissingSession(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), new(MockMovieRepository), new(MockPublisher))

	sessionRepo.On("Exists", mock.Anything, "nope").Return(false, nil)

	_, err := service.Results(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCloseSession_NonMemberRejected(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), new(MockMovieRepository), new(MockPublisher))

	sessionRepo.On("IsParticipant", mock.Anything, "session-1", "user-9").Return(false, nil)
	sessionRepo.On("Exists", mock.Anything, "session-1").Return(true, nil)

	_, err := service.CloseSession(context.Background(), "session-1", "user-9", dto.CloseSessionRequest{Outcome: models.SessionStatusCancelled})

	assert.ErrorIs(t, err, ErrNotAParticipant)
	sessionRepo.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCandidates_UsesSessionFilters(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	movieRepo := new(MockMovieRepository)
	service := newTestService(sessionRepo, new(MockSwipeRepository), new(MockMatchResultRepository), movieRepo, new(MockPublisher))

	maxRuntime := 120
	session := openSession("session-1", "user-1", models.SessionStatusActive)
	session.SelectedGenres = []int64{28, 35}
	session.MaxRuntime = &maxRuntime

	sessionRepo.On("GetByID", mock.Anything, "session-1").Return(session, nil)
	movieRepo.On("ListByFilters", mock.Anything, mock.MatchedBy(func(filters repository.MovieFilters) bool {
		return len(filters.Genres) == 2 && filters.MaxRuntime != nil && *filters.MaxRuntime == 120
	}), 25).Return([]models.Movie{{ID: "movie-1", Title: "Heat"}}, nil)

	movies, err := service.Candidates(context.Background(), "session-1", 25)

	assert.NoError(t, err)
	assert.Len(t, movies, 1)
	movieRepo.AssertExpectations(t)
}
