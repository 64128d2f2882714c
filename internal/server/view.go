package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// GameView is a game as one seat sees it: the viewer's hand in full,
// everyone else's hidden zones as counts.
type GameView struct {
	GameID   string               `json:"game_id"`
	Turn     int                  `json:"turn"`
	Active   string               `json:"active"`
	Phase    string               `json:"phase"`
	Actions  int                  `json:"actions"`
	Buys     int                  `json:"buys"`
	Coins    int                  `json:"coins"`
	Supply   map[string]int       `json:"supply"`
	Kingdom  []string             `json:"kingdom"`
	Trash    []string             `json:"trash"`
	Players  []PlayerView         `json:"players"`
	Pending  *rules.PendingChoice `json:"pending,omitempty"`
	GameOver bool                 `json:"game_over"`
	Winner   string               `json:"winner,omitempty"`
	Scores   map[string]int       `json:"scores,omitempty"`
	LastSeq  uint64               `json:"last_seq"`
}

type PlayerView struct {
	ID         string   `json:"id"`
	Hand       []string `json:"hand,omitempty"`
	HandCount  int      `json:"hand_count"`
	DeckCount  int      `json:"deck_count"`
	Discard    []string `json:"discard"`
	InPlay     []string `json:"in_play"`
	Revealed   []string `json:"revealed,omitempty"`
	SetAside   []string `json:"set_aside,omitempty"`
	TurnsTaken int      `json:"turns_taken"`
}

// NewGameView builds viewer's view of s. An empty viewer sees no hands.
func NewGameView(s *state.GameState, viewer string) GameView {
	v := GameView{
		GameID:   s.GameID,
		Turn:     s.Turn,
		Active:   s.Active,
		Phase:    s.Phase.String(),
		Actions:  s.Actions,
		Buys:     s.Buys,
		Coins:    s.Coins,
		Supply:   s.Supply,
		Kingdom:  s.Kingdom,
		Trash:    s.Trash,
		GameOver: s.GameOver,
		Winner:   s.Winner,
		Scores:   s.Scores,
		LastSeq:  s.LastSeq,
	}
	if s.Pending != nil && s.Pending.Player == viewer {
		v.Pending = s.Pending
	}
	for _, id := range s.Order {
		p := s.Player(id)
		pv := PlayerView{
			ID:         id,
			HandCount:  len(p.Hand),
			DeckCount:  len(p.Deck),
			Discard:    p.Discard,
			InPlay:     p.InPlay,
			Revealed:   p.Revealed,
			SetAside:   p.SetAside,
			TurnsTaken: p.TurnsTaken,
		}
		if id == viewer {
			pv.Hand = p.Hand
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes a protobuf Struct into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
