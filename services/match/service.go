// Package match hosts human-vs-computer games over HTTP. The computer plays
// from a compiled table, so every reply is instant and optimal.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameOver     = errors.New("game is over")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrInvalidTeam  = errors.New("invalid team")
)

var gamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tictactable_match_games_finished_total",
	Help: "Finished matches by outcome",
}, []string{"outcome"})

var gamesStarted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tictactable_match_games_started_total",
	Help: "Started matches",
})

type botPlayer interface {
	GetMove(id game.StateID, team game.Team) (game.StateID, error)
	Value(id game.StateID) (compiler.Entry, bool)
}

type session struct {
	mu    sync.Mutex
	id    string
	board *tictactoe.Board
	human game.Team

	// finishedAt is zero while the game is running.
	finishedAt time.Time
}

const DefaultFinishedTTL = 10 * time.Minute

type Service struct {
	rules *tictactoe.Rules
	bot   botPlayer

	finishedTTL time.Duration
	now         func() time.Time

	mu    sync.RWMutex
	games map[string]*session
}

type Option func(*Service)

// WithFinishedTTL sets how long a finished game stays readable before Prune
// drops it.
func WithFinishedTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.finishedTTL = d
		}
	}
}

func New(rules *tictactoe.Rules, bot botPlayer, opts ...Option) *Service {
	s := &Service{
		rules:       rules,
		bot:         bot,
		finishedTTL: DefaultFinishedTTL,
		now:         time.Now,
		games:       make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Len is the number of games held, running or finished.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.games)
}

// Prune drops games that finished at least the TTL ago and returns how many
// went.
func (s *Service) Prune(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.games {
		sess.mu.Lock()
		expired := !sess.finishedAt.IsZero() && now.Sub(sess.finishedAt) >= s.finishedTTL
		sess.mu.Unlock()

		if expired {
			delete(s.games, id)
			removed++
		}
	}

	if removed > 0 {
		logger.FromContext(ctx).Debug("pruned finished games", "count", removed)
	}

	return removed
}

// Run prunes finished games every half TTL until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.finishedTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Prune(ctx)
		}
	}
}

// Snapshot is the public view of a game.
type Snapshot struct {
	ID      string `json:"id"`
	Size    int    `json:"size"`
	State   []int  `json:"state"`
	StateID uint64 `json:"stateId"`
	Turn    int    `json:"turn"`
	Human   int    `json:"player"`
	Winner  int    `json:"winner"`
	Draw    bool   `json:"draw"`
	// Value is the compiled outcome under perfect play, from the human's
	// side: 1 win, 0 draw, -1 loss.
	Value int8 `json:"value"`
}

// NewGame starts a game where the human plays human. The computer opens when
// the human is team B.
func (s *Service) NewGame(ctx context.Context, human game.Team) (*Snapshot, error) {
	if !human.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTeam, human)
	}

	s.Prune(ctx)

	sess := &session{
		id:    uuid.NewString(),
		board: tictactoe.NewBoard(s.rules),
		human: human,
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if human == game.TeamB {
		if err := s.reply(ctx, sess); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.games[sess.id] = sess
	s.mu.Unlock()

	gamesStarted.Inc()
	logger.FromContext(ctx).Info("new game", "game_id", sess.id, "player", human)

	return s.snapshot(sess), nil
}

func (s *Service) Game(_ context.Context, gameID string) (*Snapshot, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return s.snapshot(sess), nil
}

// NewMove plays the human's move and then the computer's reply.
func (s *Service) NewMove(ctx context.Context, gameID string, move tictactoe.Move) (*Snapshot, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.board.GameOver() {
		return nil, fmt.Errorf("%w: %s", ErrGameOver, gameID)
	}

	if sess.board.NextTeam() != sess.human {
		return nil, fmt.Errorf("%w: %s", ErrNotYourTurn, gameID)
	}

	if err := sess.board.Play(sess.human, move); err != nil {
		return nil, err
	}

	if sess.board.GameOver() {
		s.finish(ctx, sess)
		return s.snapshot(sess), nil
	}

	if err := s.reply(ctx, sess); err != nil {
		return nil, err
	}

	return s.snapshot(sess), nil
}

func (s *Service) reply(ctx context.Context, sess *session) error {
	b := sess.board
	team := sess.human.Other()

	from := b.StateID()
	next, err := s.bot.GetMove(from, team)
	if err != nil {
		return fmt.Errorf("computer move from %d: %w", from, err)
	}

	cell, err := tictactoe.MoveCell(from, next, b.N)
	if err != nil {
		return err
	}

	if err := b.ApplyMove(cell, team); err != nil {
		return err
	}

	logger.FromContext(ctx).Debug("computer moved", "game_id", sess.id, "cell", cell, "state", next)

	if b.GameOver() {
		s.finish(ctx, sess)
	}

	return nil
}

func (s *Service) finish(ctx context.Context, sess *session) {
	outcome := game.OutcomeFor(sess.board.CheckWinner())
	if outcome == game.Undecided {
		outcome = game.Draw
	}

	sess.finishedAt = s.now()
	gamesFinished.WithLabelValues(outcome.String()).Inc()
	logger.FromContext(ctx).Info("game over", "game_id", sess.id, "outcome", outcome)
}

func (s *Service) session(gameID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	return sess, nil
}

func (s *Service) snapshot(sess *session) *Snapshot {
	b := sess.board
	id := b.StateID()
	winner := b.CheckWinner()

	state := make([]int, len(b.Cells))
	for i, c := range b.Cells {
		state[i] = int(c)
	}

	var value int8
	if e, ok := s.bot.Value(id); ok {
		value = e.Value
		if b.NextTeam() != sess.human {
			value = -value
		}
	}

	return &Snapshot{
		ID:      sess.id,
		Size:    b.N,
		State:   state,
		StateID: uint64(id),
		Turn:    b.Turn,
		Human:   int(sess.human),
		Winner:  int(winner),
		Draw:    winner == game.None && !b.AnyLegalMoves(),
		Value:   value,
	}
}
