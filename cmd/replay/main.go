// Command replay inspects a recorded game, from the event store or from a
// replay file, and prints the state at any point of its log.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/config"
	"github.com/kingdomforge/kingdom-server-go/internal/game"
	"github.com/kingdomforge/kingdom-server-go/internal/server"
	"github.com/kingdomforge/kingdom-server-go/internal/store"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	gameID     = flag.String("game", "", "game id to inspect")
	fromFile   = flag.Bool("file", false, "read <replay_dir>/<game>.replay instead of the event store")
	at         = flag.Int("at", -1, "print the state after this many events (default: the whole log)")
	viewer     = flag.String("viewer", "", "show this player's hand")
	list       = flag.Bool("list", false, "list stored games and exit")
	step       = flag.Int("step", 0, "print a timeline with one frame every N events instead of a single state")
	verify     = flag.Bool("verify", false, "check the log replays consistently before printing")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := zap.NewNop()
	ctx := context.Background()

	if *list {
		events, err := open(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer events.Close()
		ids, err := events.ListGames(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if *gameID == "" {
		return fmt.Errorf("-game is required")
	}
	replay, err := load(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if replay.Size() == 0 {
		return fmt.Errorf("game %s has no events", *gameID)
	}

	if *verify {
		if err := replay.Verify(); err != nil {
			return err
		}
	}

	var out map[string]any
	if *step > 0 {
		out = map[string]any{
			"game_id":  replay.GameID,
			"events":   replay.Size(),
			"timeline": replay.Timeline(*step),
		}
	} else if out, err = snapshot(replay); err != nil {
		return err
	}
	if *verify {
		out["verified"] = true
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// snapshot describes the state at -at, with the checksum of the position
// before it for comparing logs from two hosts.
func snapshot(replay *game.Replay) (map[string]any, error) {
	index := replay.Size() - 1
	if *at > 0 && *at <= replay.Size() {
		index = *at - 1
	}
	replay.Start()
	st := replay.Skip(index)
	digest, err := game.LogDigest(replay.Events[:index+1])
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"game_id":    replay.GameID,
		"events":     replay.Size(),
		"position":   index + 1,
		"checksum":   game.Checksum(st),
		"log_digest": digest,
		"state":      server.NewGameView(st, *viewer),
	}
	if prev := replay.Previous(); prev != nil {
		out["previous_checksum"] = game.Checksum(prev)
	}
	return out, nil
}

func load(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*game.Replay, error) {
	if *fromFile {
		return game.LoadReplayFromFile(cfg.Game.ReplayDir, *gameID)
	}
	events, err := open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	defer events.Close()

	log, err := events.Load(ctx, *gameID)
	if err != nil {
		return nil, err
	}
	return game.NewReplay(*gameID, log), nil
}

func open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.EventStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return store.OpenSQLite(cfg.SQLitePath, logger)
	case config.DriverPostgres:
		return store.OpenPostgres(ctx, cfg.PostgresURL, cfg.MaxConns, logger)
	}
	return nil, fmt.Errorf("store driver %q keeps nothing to replay", cfg.Driver)
}
