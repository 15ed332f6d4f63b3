package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service/duel"
	"github.com/yourusername/satprep-api/internal/websocket"
)

const snapshotCachePrefix = "game:snapshot:"

// QuestionSupplier returns the ordered question pool for a category and optional topic.
type QuestionSupplier interface {
	Pool(ctx context.Context, category, topic string) ([]entity.Question, error)
}

// GameNotifier is told about every committed change of a game.
type GameNotifier interface {
	NotifyGameUpdated(ctx context.Context, event websocket.GameEvent)
}

// DuelConfig holds the tunables of the game state machine.
type DuelConfig struct {
	Limits duel.Limits
	// CodeAttempts bounds the collision retries when allocating a game code
	CodeAttempts int
	// AnswerGrace is added to the timed-mode deadline; negative disables the deadline check
	AnswerGrace      time.Duration
	SnapshotCacheTTL time.Duration
	HistoryLimit     int
}

// DefaultDuelConfig returns the defaults used when nothing is configured
func DefaultDuelConfig() DuelConfig {
	return DuelConfig{
		Limits:           duel.DefaultLimits(),
		CodeAttempts:     10,
		AnswerGrace:      2 * time.Second,
		SnapshotCacheTTL: 2 * time.Second,
		HistoryLimit:     20,
	}
}

// DuelService is the 1v1 game state machine. Every action is a single
// GameRepository.Update, so validation and all effects of one action see the
// freshest state and commit together.
type DuelService struct {
	gameRepo  repository.GameRepository
	questions QuestionSupplier
	cacheRepo repository.CacheRepository
	notifier  GameNotifier
	config    DuelConfig

	now  func() time.Time
	perm duel.PermFunc
}

// NewDuelService creates the service. cacheRepo and notifier may be nil.
func NewDuelService(
	gameRepo repository.GameRepository,
	questions QuestionSupplier,
	cacheRepo repository.CacheRepository,
	notifier GameNotifier,
	config DuelConfig,
) *DuelService {
	if config.CodeAttempts <= 0 {
		config.CodeAttempts = DefaultDuelConfig().CodeAttempts
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DefaultDuelConfig().HistoryLimit
	}
	return &DuelService{
		gameRepo:  gameRepo,
		questions: questions,
		cacheRepo: cacheRepo,
		notifier:  notifier,
		config:    config,
		now:       time.Now,
		perm:      rand.Perm,
	}
}

// JoinResult is returned by Join. AlreadyJoined is informational.
type JoinResult struct {
	Game          *entity.Game
	AlreadyJoined bool
}

// CreateGame validates the settings and stores a waiting game owned by userID.
func (s *DuelService) CreateGame(ctx context.Context, userID uint, cfg entity.GameConfig) (*entity.Game, error) {
	cfg, err := duel.NormalizeConfig(cfg, s.config.Limits)
	if err != nil {
		return nil, err
	}

	game, err := s.createWithUniqueCode(
		func(code string) *entity.Game { return entity.NewGame(code, userID, cfg, s.now()) },
		func(code string) (bool, error) { return s.gameRepo.CodeExists(ctx, code) },
		func(g *entity.Game) error { return s.gameRepo.Create(ctx, g) },
	)
	if err != nil {
		return nil, err
	}

	log.Printf("[DuelService] Game %s created by user #%d (%s/%q, %d rounds, %s)",
		game.Code, userID, cfg.Category, cfg.Topic, cfg.NumRounds, cfg.Mode)
	s.notify(ctx, game, "created")
	return game, nil
}

// createWithUniqueCode allocates a fresh code, retrying on collisions detected
// either up front or by the insert itself.
func (s *DuelService) createWithUniqueCode(
	build func(code string) *entity.Game,
	exists func(code string) (bool, error),
	insert func(game *entity.Game) error,
) (*entity.Game, error) {
	for attempt := 1; attempt <= s.config.CodeAttempts; attempt++ {
		code, err := duel.GenerateCode()
		if err != nil {
			return nil, err
		}
		taken, err := exists(code)
		if err != nil {
			return nil, fmt.Errorf("failed to check game code: %w", err)
		}
		if taken {
			log.Printf("[DuelService] Game code %s collided (attempt %d)", code, attempt)
			continue
		}

		game := build(code)
		if err := insert(game); err != nil {
			if errors.Is(err, repository.ErrCodeTaken) {
				log.Printf("[DuelService] Game code %s taken concurrently (attempt %d)", code, attempt)
				continue
			}
			return nil, fmt.Errorf("failed to create game: %w", err)
		}
		return game, nil
	}
	return nil, fmt.Errorf("could not allocate a unique game code after %d attempts", s.config.CodeAttempts)
}

// Join adds userID as the second player. Re-joining returns the current game.
func (s *DuelService) Join(ctx context.Context, code string, userID uint) (*JoinResult, error) {
	already := false
	game, err := s.mutate(ctx, code, "joined", func(tx repository.GameTx, g *entity.Game) error {
		if g.HasPlayer(userID) {
			already = true
			return repository.ErrNoChange
		}
		if !g.IsWaiting() {
			return fmt.Errorf("%w: game %s is %s", apperrors.ErrNotJoinable, code, g.Status)
		}
		if len(g.Players) >= entity.MaxPlayers {
			return fmt.Errorf("%w: game %s already has %d players", apperrors.ErrGameFull, code, entity.MaxPlayers)
		}
		g.Players = append(g.Players, *entity.NewPlayer(userID, s.now()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !already {
		log.Printf("[DuelService] User #%d joined game %s", userID, code)
	}
	return &JoinResult{Game: game, AlreadyJoined: already}, nil
}

// MarkReady flags the caller as ready in the lobby.
func (s *DuelService) MarkReady(ctx context.Context, code string, userID uint) (*entity.Game, error) {
	return s.mutate(ctx, code, "ready", func(tx repository.GameTx, g *entity.Game) error {
		p := g.Player(userID)
		if p == nil {
			return fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
		}
		if !g.IsWaiting() {
			return fmt.Errorf("%w: game %s is already %s", apperrors.ErrInvalidState, code, g.Status)
		}
		if p.IsReady {
			return repository.ErrNoChange
		}
		p.IsReady = true
		return nil
	})
}

func checkCanStart(g *entity.Game, userID uint) error {
	if !g.IsCreator(userID) {
		return fmt.Errorf("%w: only the creator can start game %s", apperrors.ErrForbidden, g.Code)
	}
	if !g.IsWaiting() {
		return fmt.Errorf("%w: game %s is already %s", apperrors.ErrInvalidState, g.Code, g.Status)
	}
	if len(g.Players) != entity.MaxPlayers {
		return fmt.Errorf("%w: waiting for an opponent to join", apperrors.ErrNotReady)
	}
	for i := range g.Players {
		if !g.Players[i].IsReady {
			return fmt.Errorf("%w: not all players are ready", apperrors.ErrNotReady)
		}
	}
	return nil
}

// Start draws the questions and opens round 1. The pool is fetched before the
// game is locked; a supplier failure leaves the game waiting.
func (s *DuelService) Start(ctx context.Context, code string, userID uint) (*entity.Game, error) {
	current, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := checkCanStart(current, userID); err != nil {
		return nil, err
	}

	pool, err := s.fetchPool(ctx, current)
	if err != nil {
		return nil, err
	}
	indices, bodies, err := duel.SelectQuestions(pool, current.NumRounds, s.perm)
	if err != nil {
		return nil, err
	}

	game, err := s.mutate(ctx, code, "started", func(tx repository.GameTx, g *entity.Game) error {
		if err := checkCanStart(g, userID); err != nil {
			return err
		}
		if g.NumRounds != len(indices) {
			return fmt.Errorf("game %s changed while starting", code)
		}
		now := s.now()
		first := bodies[0].Bare()
		g.Questions = indices
		g.GameQuestions = bodies
		g.CurrentRound = 1
		g.CurrentQuestion = &first
		g.QuestionStartTime = &now
		g.RoundStartTime = &now
		g.Status = entity.GameStatusActive
		duel.ClearAnswers(g.Players)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DuelService] Game %s started with %d questions", code, len(indices))
	return game, nil
}

// GetGame returns the game snapshot to one of its players.
func (s *DuelService) GetGame(ctx context.Context, code string, userID uint) (*entity.Game, error) {
	game, err := s.snapshot(ctx, code)
	if err != nil {
		return nil, err
	}
	if !game.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
	}
	return game, nil
}

// History returns the caller's finished and forfeited games, newest first.
func (s *DuelService) History(ctx context.Context, userID uint, limit int) ([]entity.Game, error) {
	if limit <= 0 || limit > s.config.HistoryLimit {
		limit = s.config.HistoryLimit
	}
	games, err := s.gameRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load game history: %w", err)
	}
	return games, nil
}

// mutate applies fn under the game lock. When fn changed something the cached
// snapshot is replaced with the committed game and subscribers are notified.
func (s *DuelService) mutate(ctx context.Context, code, action string, fn repository.UpdateFunc) (*entity.Game, error) {
	changed := false
	game, err := s.gameRepo.Update(ctx, code, func(tx repository.GameTx, g *entity.Game) error {
		if err := fn(tx, g); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: game %s does not exist", apperrors.ErrNotFound, code)
		}
		return nil, err
	}
	if changed {
		s.storeSnapshot(ctx, game)
		s.notify(ctx, game, action)
	}
	return game, nil
}

func (s *DuelService) load(ctx context.Context, code string) (*entity.Game, error) {
	game, err := s.gameRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: game %s does not exist", apperrors.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to load game %s: %w", code, err)
	}
	return game, nil
}

func (s *DuelService) fetchPool(ctx context.Context, game *entity.Game) ([]entity.Question, error) {
	pool, err := s.questions.Pool(ctx, game.Category, game.Topic)
	if err != nil {
		log.Printf("[DuelService] Question pool for game %s unavailable: %v", game.Code, err)
		if errors.Is(err, apperrors.ErrSupplierUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSupplierUnavailable, err)
	}
	return pool, nil
}

func snapshotKey(code string) string {
	return snapshotCachePrefix + code
}

func (s *DuelService) snapshotCacheEnabled() bool {
	return s.cacheRepo != nil && s.config.SnapshotCacheTTL > 0
}

func (s *DuelService) snapshot(ctx context.Context, code string) (*entity.Game, error) {
	if s.snapshotCacheEnabled() {
		var cached entity.Game
		err := s.cacheRepo.GetJSON(ctx, snapshotKey(code), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[DuelService] Snapshot cache read failed for %s: %v", code, err)
		}
	}

	game, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.snapshotCacheEnabled() {
		// A commit may have landed after load; its newer snapshot wins.
		if _, err := s.cacheRepo.SetJSONIfNewer(ctx, snapshotKey(code), game, game.Version, s.config.SnapshotCacheTTL); err != nil {
			log.Printf("[DuelService] Snapshot cache write failed for %s: %v", code, err)
		}
	}
	return game, nil
}

// storeSnapshot caches a just-committed game. If that fails the entry is
// dropped so readers fall through to the store.
func (s *DuelService) storeSnapshot(ctx context.Context, game *entity.Game) {
	if !s.snapshotCacheEnabled() {
		return
	}
	key := snapshotKey(game.Code)
	_, err := s.cacheRepo.SetJSONIfNewer(ctx, key, game, game.Version, s.config.SnapshotCacheTTL)
	if err == nil {
		return
	}
	log.Printf("[DuelService] Snapshot cache update failed for %s: %v", game.Code, err)
	if err := s.cacheRepo.Delete(ctx, key); err != nil {
		log.Printf("[DuelService] Snapshot cache invalidation failed for %s: %v", game.Code, err)
	}
}

func (s *DuelService) notify(ctx context.Context, game *entity.Game, action string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyGameUpdated(ctx, websocket.GameEvent{
		Code:    game.Code,
		Version: game.Version,
		Status:  game.Status,
		Action:  action,
		At:      s.now(),
	})
}
