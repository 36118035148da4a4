package service

import (
	"context"
	"errors"

	"scuderia-bot/internal/availability"
	"scuderia-bot/internal/domain"
	"scuderia-bot/internal/repository"
	"scuderia-bot/internal/roster"
	apperrors "scuderia-bot/pkg/errors"
	"scuderia-bot/pkg/logger"
	"scuderia-bot/pkg/redis"
)

const (
	msgNoPicksYet = "No picks have been made yet. Be the first to use /pick!"
	msgAllTaken   = "All drivers have been taken."
)

// PickerService implements the query surface and the commit path. It
// combines the roster store with the pick repository and keeps the
// read-side caches coherent across commits.
type PickerService struct {
	repo    repository.PickRepository
	rosters *roster.Store
	cache   *CacheService
	logger  *logger.Logger
}

// NewPickerService creates a new picker service. redisClient may be
// nil; the service then runs uncached.
func NewPickerService(repo repository.PickRepository, rosters *roster.Store, redisClient *redis.Client, log *logger.Logger) *PickerService {
	var cache *CacheService
	if redisClient != nil {
		cache = NewCacheService(redisClient, log.Logger)
	}
	return &PickerService{
		repo:    repo,
		rosters: rosters,
		cache:   cache,
		logger:  log,
	}
}

// Roster returns the current roster snapshot.
func (s *PickerService) Roster() domain.Roster {
	return s.rosters.Current()
}

// ReloadRoster replaces the roster from the upstream source. A failed
// reload keeps the previous roster and surfaces an upstream error.
func (s *PickerService) ReloadRoster(ctx context.Context) error {
	if err := s.rosters.Load(ctx); err != nil {
		return apperrors.NewUpstreamError("Could not refresh F1 data. The previous roster is still in use.", err)
	}
	s.cache.InvalidateReportCaches(ctx)
	return nil
}

// MyPick returns the user's committed pick, or nil if none exists.
func (s *PickerService) MyPick(ctx context.Context, userID int64) (*domain.Pick, error) {
	if keys := s.cache.Keys(); keys != nil {
		var pick domain.Pick
		if s.cache.GetJSON(ctx, keys.KeyUserPick(userID), &pick) {
			return &pick, nil
		}
	}

	pick, err := s.repo.GetPick(ctx, userID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	if pick != nil {
		if keys := s.cache.Keys(); keys != nil {
			s.cache.SetJSON(keys.KeyUserPick(userID), pick, redis.TTLUserPick)
		}
	}

	return pick, nil
}

// Leaderboard returns every pick, most recently updated first. An
// empty board is a reportable state, not an error.
func (s *PickerService) Leaderboard(ctx context.Context) (*domain.LeaderboardResponse, error) {
	if keys := s.cache.Keys(); keys != nil {
		var resp domain.LeaderboardResponse
		if s.cache.GetJSON(ctx, keys.KeyLeaderboard(), &resp) {
			return &resp, nil
		}
	}

	picks, err := s.repo.GetAllPicks(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	resp := &domain.LeaderboardResponse{Picks: picks}
	if len(picks) == 0 {
		resp.Message = msgNoPicksYet
	}

	if keys := s.cache.Keys(); keys != nil {
		s.cache.SetJSON(keys.KeyLeaderboard(), resp, redis.TTLLeaderboard)
	}

	return resp, nil
}

// AvailabilityReport lists each team that still has at least one free
// driver, with its free drivers in roster order.
func (s *PickerService) AvailabilityReport(ctx context.Context) (*domain.AvailabilityResponse, error) {
	if keys := s.cache.Keys(); keys != nil {
		var resp domain.AvailabilityResponse
		if s.cache.GetJSON(ctx, keys.KeyAvailability(), &resp) {
			return &resp, nil
		}
	}

	byTeam, err := s.AvailableByTeam(ctx)
	if err != nil {
		return nil, err
	}

	resp := &domain.AvailabilityResponse{Teams: availability.NonEmpty(byTeam)}
	if len(resp.Teams) == 0 {
		resp.Message = msgAllTaken
	}

	if keys := s.cache.Keys(); keys != nil {
		s.cache.SetJSON(keys.KeyAvailability(), resp, redis.TTLAvailability)
	}

	return resp, nil
}

// AvailableByTeam returns the uncached per-team availability for every
// roster team, exhausted teams included. Flow steps use this directly
// so their re-checks see live state.
func (s *PickerService) AvailableByTeam(ctx context.Context) ([]domain.TeamAvailability, error) {
	taken, err := s.repo.GetSelectedDrivers(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return availability.ByTeam(s.rosters.Current(), taken), nil
}

// TotalAvailable returns the global free-driver count.
func (s *PickerService) TotalAvailable(ctx context.Context) (int, error) {
	taken, err := s.repo.GetSelectedDrivers(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return availability.Total(s.rosters.Current(), len(taken)), nil
}

// CommitPick atomically claims a driver for a user. A lost race comes
// back as a DriverTaken application error; any other repository error
// is a storage failure. Successful commits invalidate the read caches.
func (s *PickerService) CommitPick(ctx context.Context, userID int64, alias, team, driver string) (*domain.Pick, error) {
	pick, err := s.repo.Commit(ctx, userID, alias, team, driver)
	if err != nil {
		if errors.Is(err, repository.ErrDriverTaken) {
			s.logger.WithFields(map[string]interface{}{
				"user_id": userID,
				"driver":  driver,
			}).Info("Commit lost the race for driver")
			return nil, apperrors.NewDriverTakenError(driver)
		}
		s.logger.WithError(err).Error("Commit failed")
		return nil, apperrors.NewStorageError(err)
	}

	s.cache.InvalidatePickCaches(ctx, userID)

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"team":    team,
		"driver":  driver,
	}).Info("Pick committed")

	return pick, nil
}
