package match

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/tictactable/pkg/ai"
	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

func newService(t *testing.T) *Service {
	t.Helper()

	c, err := tictactoe.NewCompilation(3)
	require.NoError(t, err)

	table, err := compiler.New(c, compiler.Options{}).Compile(context.Background())
	require.NoError(t, err)

	engine := ai.New(c.Rules)
	require.NoError(t, engine.Load(table))

	return New(c.Rules, engine)
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, Snapshot) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap Snapshot
	if resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	}

	return resp.StatusCode, snap
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(HTTPHandler(newService(t)))
	defer srv.Close()

	t.Run("new game as X", func(t *testing.T) {
		status, snap := do(t, srv, http.MethodPost, "/", `{"player":1}`)
		require.Equal(t, http.StatusCreated, status)
		require.NotEmpty(t, snap.ID)
		require.Equal(t, 3, snap.Size)
		require.Equal(t, make([]int, 9), snap.State)
		require.Zero(t, snap.StateID)
		require.Zero(t, snap.Turn)
		require.Zero(t, snap.Value)

		status, got := do(t, srv, http.MethodGet, "/"+snap.ID, "")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, snap, got)
	})

	t.Run("computer opens for O", func(t *testing.T) {
		status, snap := do(t, srv, http.MethodPost, "/", `{"player":2}`)
		require.Equal(t, http.StatusCreated, status)
		require.Equal(t, 1, snap.Turn)
		require.Equal(t, uint64(1), snap.StateID)
		require.Equal(t, 2, snap.Human)
		require.Zero(t, snap.Value)
	})

	t.Run("move gets a reply", func(t *testing.T) {
		_, snap := do(t, srv, http.MethodPost, "/", `{"player":1}`)

		status, after := do(t, srv, http.MethodPost, "/"+snap.ID+"/moves/", `{"x":1,"y":1}`)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 2, after.Turn)
		require.Equal(t, 1, after.State[4])
		require.Equal(t, 1, countOf(after.State, 2))
		require.Zero(t, after.Value)

		status, _ = do(t, srv, http.MethodPost, "/"+snap.ID+"/moves/", `{"x":1,"y":1}`)
		require.Equal(t, http.StatusConflict, status)
	})

	t.Run("bad requests", func(t *testing.T) {
		_, snap := do(t, srv, http.MethodPost, "/", `{"player":1}`)
		path := "/" + snap.ID + "/moves/"

		cases := map[string]struct {
			path   string
			body   string
			status int
		}{
			"out of range":   {path, `{"x":3,"y":0}`, http.StatusBadRequest},
			"negative":       {path, `{"x":0,"y":-1}`, http.StatusBadRequest},
			"missing y":      {path, `{"x":0}`, http.StatusBadRequest},
			"not json":       {path, `x=0`, http.StatusBadRequest},
			"unknown game":   {"/nope/moves/", `{"x":0,"y":0}`, http.StatusNotFound},
			"invalid player": {"/", `{"player":3}`, http.StatusBadRequest},
		}

		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				status, _ := do(t, srv, http.MethodPost, tc.path, tc.body)
				require.Equal(t, tc.status, status)
			})
		}

		status, _ := do(t, srv, http.MethodGet, "/nope", "")
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("computer never loses", func(t *testing.T) {
		for _, player := range []string{`{"player":1}`, `{"player":2}`} {
			_, snap := do(t, srv, http.MethodPost, "/", player)

			for snap.Winner == 0 && !snap.Draw {
				cell := slices.Index(snap.State, 0)
				require.NotEqual(t, -1, cell)

				var status int
				body, _ := json.Marshal(map[string]int{"x": cell % 3, "y": cell / 3})
				status, snap = do(t, srv, http.MethodPost, "/"+snap.ID+"/moves/", string(body))
				require.Equal(t, http.StatusOK, status)
			}

			require.NotEqual(t, snap.Human, snap.Winner)
			require.LessOrEqual(t, snap.Value, int8(0))

			status, _ := do(t, srv, http.MethodPost, "/"+snap.ID+"/moves/", `{"x":0,"y":0}`)
			require.Equal(t, http.StatusConflict, status)
		}
	})
}

func TestService(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.NewGame(ctx, game.None)
	require.ErrorIs(t, err, ErrInvalidTeam)

	_, err = svc.Game(ctx, "missing")
	require.ErrorIs(t, err, ErrGameNotFound)

	snap, err := svc.NewGame(ctx, game.TeamA)
	require.NoError(t, err)

	// X takes two corners; the computer must block the third cell between them.
	snap, err = svc.NewMove(ctx, snap.ID, tictactoe.Move{X: 0, Y: 0})
	require.NoError(t, err)

	reply := slices.Index(snap.State, 2)
	require.Equal(t, 4, reply, "the only non-losing answer to a corner is the centre")

	snap, err = svc.NewMove(ctx, snap.ID, tictactoe.Move{X: 2, Y: 0})
	require.NoError(t, err)
	require.Equal(t, 2, snap.State[1])
}

func countOf(s []int, v int) int {
	n := 0
	for _, x := range s {
		if x == v {
			n++
		}
	}

	return n
}

// playOut plays the first empty cell until the game ends.
func playOut(t *testing.T, svc *Service, snap *Snapshot) *Snapshot {
	t.Helper()

	for snap.Winner == 0 && !snap.Draw {
		cell := slices.Index(snap.State, 0)
		require.GreaterOrEqual(t, cell, 0)

		var err error
		snap, err = svc.NewMove(context.Background(), snap.ID, tictactoe.Move{X: cell % snap.Size, Y: cell / snap.Size})
		require.NoError(t, err)
	}

	return snap
}

func TestFinishedGamesExpire(t *testing.T) {
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t)
	WithFinishedTTL(time.Minute)(svc)
	svc.now = func() time.Time { return clock }

	done, err := svc.NewGame(ctx, game.TeamA)
	require.NoError(t, err)
	done = playOut(t, svc, done)

	running, err := svc.NewGame(ctx, game.TeamA)
	require.NoError(t, err)

	t.Run("readable within the ttl", func(t *testing.T) {
		clock = clock.Add(59 * time.Second)
		require.Zero(t, svc.Prune(ctx))

		_, err := svc.Game(ctx, done.ID)
		require.NoError(t, err)
	})

	t.Run("gone after the ttl", func(t *testing.T) {
		clock = clock.Add(time.Second)
		require.Equal(t, 1, svc.Prune(ctx))
		require.Equal(t, 1, svc.Len())

		_, err := svc.Game(ctx, done.ID)
		require.ErrorIs(t, err, ErrGameNotFound)

		srv := httptest.NewServer(HTTPHandler(svc))
		defer srv.Close()

		status, _ := do(t, srv, http.MethodGet, "/"+done.ID, "")
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("running games are kept", func(t *testing.T) {
		clock = clock.Add(time.Hour)
		require.Zero(t, svc.Prune(ctx))

		_, err := svc.Game(ctx, running.ID)
		require.NoError(t, err)
	})

	t.Run("new games sweep expired ones", func(t *testing.T) {
		finished := playOut(t, svc, running)
		require.Equal(t, 1, svc.Len())

		clock = clock.Add(time.Minute)
		_, err := svc.NewGame(ctx, game.TeamB)
		require.NoError(t, err)
		require.Equal(t, 1, svc.Len())

		_, err = svc.Game(ctx, finished.ID)
		require.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("run stops with the context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		require.NoError(t, svc.Run(ctx))
	})
}
