package service

import (
	"context"
	"log/slog"

	"popcult/internal/microservices/http-api/dto"
	"popcult/internal/microservices/http-api/models"
	"popcult/internal/microservices/http-api/repository"
)

// Re-exported so handlers and the websocket layer match on service errors
// without importing the repository package.
var (
	ErrSessionNotFound = repository.ErrSessionNotFound
	ErrMovieNotFound   = repository.ErrMovieNotFound
	ErrNotAParticipant = repository.ErrNotAParticipant
	ErrSessionClosed   = repository.ErrSessionClosed
	ErrInvalidOutcome  = repository.ErrInvalidOutcome
)

type MatchingService interface {
	CreateSession(ctx context.Context, creatorID string, req dto.CreateSessionRequest) (*dto.SessionResponse, error)
	JoinSession(ctx context.Context, sessionID, userID string) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, sessionID, userID string, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	Swipe(ctx context.Context, sessionID, userID, movieID string, liked bool) (*dto.SwipeResultResponse, error)
	Results(ctx context.Context, sessionID string) ([]dto.MatchResultResponse, error)
	SessionDetail(ctx context.Context, sessionID string) (*dto.SessionDetailResponse, error)
	Candidates(ctx context.Context, sessionID string, limit int) ([]models.Movie, error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
}

type matchingService struct {
	sessionRepo repository.SessionRepository
	swipeRepo   repository.SwipeRepository
	resultRepo  repository.MatchResultRepository
	movieRepo   repository.MovieRepository
	publisher   ResultsPublisher
	logger      *slog.Logger
}

func NewMatchingService(
	sessionRepo repository.SessionRepository,
	swipeRepo repository.SwipeRepository,
	resultRepo repository.MatchResultRepository,
	movieRepo repository.MovieRepository,
	publisher ResultsPublisher,
	logger *slog.Logger,
) MatchingService {
	return &matchingService{
		sessionRepo: sessionRepo,
		swipeRepo:   swipeRepo,
		resultRepo:  resultRepo,
		movieRepo:   movieRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateSession opens a waiting session with the creator as its first participant.
func (s *matchingService) CreateSession(ctx context.Context, creatorID string, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	session := &models.MatchingSession{
		CreatorID:      creatorID,
		Name:           req.Name,
		SelectedGenres: req.SelectedGenres,
		Theme:          req.Theme,
		ReleaseYearMin: req.ReleaseYearMin,
		ReleaseYearMax: req.ReleaseYearMax,
		MaxRuntime:     req.MaxRuntime,
		Status:         models.SessionStatusWaiting,
	}
	if err := s.sessionRepo.CreateWithCreator(ctx, session); err != nil {
		return nil, err
	}
	return s.sessionResponse(ctx, session.ID)
}

// JoinSession adds the user to an open session. Joining twice is a no-op that
// returns the current session state. The status check and the membership
// insert run in one repository transaction under the session row lock, so a
// concurrent close can never admit a participant into a finished session.
func (s *matchingService) JoinSession(ctx context.Context, sessionID, userID string) (*dto.SessionResponse, error) {
	if err := s.sessionRepo.Join(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.sessionResponse(ctx, sessionID)
}

// CloseSession finishes the session as completed or cancelled. Any current
// participant may close; closing is irreversible.
func (s *matchingService) CloseSession(ctx context.Context, sessionID, userID string, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	isMember, err := s.sessionRepo.IsParticipant(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		exists, err := s.sessionRepo.Exists(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrSessionNotFound
		}
		return nil, ErrNotAParticipant
	}

	if err := s.sessionRepo.Close(ctx, sessionID, req.Outcome, req.MatchedMovieID); err != nil {
		return nil, err
	}
	return s.sessionResponse(ctx, sessionID)
}

// Swipe is the shared mutate-then-broadcast path used by both the REST
// endpoint and the websocket handler: upsert + recompute in one transaction,
// then fan the fresh ranking out to the session's broadcast group.
func (s *matchingService) Swipe(ctx context.Context, sessionID, userID, movieID string, liked bool) (*dto.SwipeResultResponse, error) {
	swipe, results, err := s.swipeRepo.Record(ctx, sessionID, userID, movieID, liked)
	if err != nil {
		return nil, err
	}

	response := &dto.SwipeResultResponse{
		Swipe:   dto.FromModelToSwipeResponse(swipe),
		Results: dto.FromModelToMatchResultResponses(results),
	}

	if s.publisher != nil {
		event := ResultsUpdateEvent{
			Results: response.Results,
			Swipe: SwipeEvent{
				UserID:  userID,
				MovieID: movieID,
				Liked:   liked,
			},
		}
		if err := s.publisher.PublishResults(ctx, sessionID, event); err != nil {
			// Broadcast is best-effort; the swipe is already committed.
			s.logger.Warn("failed to publish results update",
				"session_id", sessionID, "error", err)
		}
	}

	return response, nil
}

func (s *matchingService) Results(ctx context.Context, sessionID string) ([]dto.MatchResultResponse, error) {
	exists, err := s.sessionRepo.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	results, err := s.resultRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToMatchResultResponses(results), nil
}

func (s *matchingService) SessionDetail(ctx context.Context, sessionID string) (*dto.SessionDetailResponse, error) {
	sessionResp, err := s.sessionResponse(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	participants, err := s.sessionRepo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	swipesCount, err := s.swipeRepo.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	results, err := s.resultRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.SessionDetailResponse{
		Session:      *sessionResp,
		Participants: dto.FromModelToParticipantResponses(participants),
		SwipesCount:  swipesCount,
		Results:      dto.FromModelToMatchResultResponses(results),
	}, nil
}

// Candidates returns movies bounded by the session's filters. The matching
// engine itself never enforces these; they exist to shape the swipe deck.
func (s *matchingService) Candidates(ctx context.Context, sessionID string, limit int) ([]models.Movie, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	filters := repository.MovieFilters{
		Genres:         session.SelectedGenres,
		ReleaseYearMin: session.ReleaseYearMin,
		ReleaseYearMax: session.ReleaseYearMax,
		MaxRuntime:     session.MaxRuntime,
	}
	return s.movieRepo.ListByFilters(ctx, filters, limit)
}

func (s *matchingService) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return s.sessionRepo.Exists(ctx, sessionID)
}

func (s *matchingService) sessionResponse(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	count, err := s.sessionRepo.CountParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToSessionResponse(session, count)
	return &resp, nil
}
