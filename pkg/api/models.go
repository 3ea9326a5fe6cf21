package api

import (
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/services/escrow"
)

type createGameRequest struct {
	GameType    string `json:"game_type" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Wager       uint64 `json:"wager"`
	PlayerCount uint8  `json:"player_count"`
}

type resolveGameRequest struct {
	Winner          string   `json:"winner"`
	WinnerMarker    string   `json:"winner_marker"`
	Destination     string   `json:"destination"`
	FirstPlayer     string   `json:"first_player"`
	ExpectedPlayers []string `json:"expected_players"`
}

type fundRequest struct {
	Amount uint64 `json:"amount"`
}

type gameResponse struct {
	Address       string    `json:"address"`
	Code          string    `json:"code"`
	GameType      uint8     `json:"game_type"`
	Game          string    `json:"game"`
	Wager         uint64    `json:"wager"`
	MinPlayers    uint8     `json:"min_players"`
	MaxPlayers    uint8     `json:"max_players"`
	PlayersJoined uint8     `json:"players_joined"`
	Players       []string  `json:"players"`
	Markers       []string  `json:"markers"`
	Escrow        uint64    `json:"escrow"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type settlementResponse struct {
	GameAddress   string `json:"game_address"`
	Winner        string `json:"winner"`
	Creator       string `json:"creator"`
	Payout        uint64 `json:"payout"`
	ReserveRefund uint64 `json:"reserve_refund"`
}

type eventResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Code      string    `json:"code"`
	GameType  uint8     `json:"game_type"`
	Actor     string    `json:"actor"`
	Amount    uint64    `json:"amount"`
	Winner    string    `json:"winner,omitempty"`
	Players   []string  `json:"players"`
	Timestamp time.Time `json:"timestamp"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Amount      uint64    `json:"amount"`
	Type        string    `json:"type"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type walletResponse struct {
	Identity     string                `json:"identity"`
	Balance      uint64                `json:"balance"`
	Transactions []transactionResponse `json:"transactions"`
}

func newGameResponse(name string, rec *entities.GameRecord, escrowBalance uint64) gameResponse {
	resp := gameResponse{
		Address:       string(rec.Address),
		Code:          rec.Code,
		GameType:      uint8(rec.GameType),
		Game:          name,
		Wager:         rec.Wager,
		MinPlayers:    rec.MinPlayers,
		MaxPlayers:    rec.MaxPlayers,
		PlayersJoined: rec.PlayersJoined,
		Players:       make([]string, 0, rec.PlayersJoined),
		Markers:       make([]string, 0, rec.PlayersJoined),
		Escrow:        escrowBalance,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	for i, id := range rec.JoinedPlayers() {
		resp.Players = append(resp.Players, string(id))
		resp.Markers = append(resp.Markers, string(rec.Markers[i]))
	}
	return resp
}

func newSettlementResponse(s *escrow.Settlement) settlementResponse {
	return settlementResponse{
		GameAddress:   string(s.GameAddress),
		Winner:        string(s.Winner),
		Creator:       string(s.Creator),
		Payout:        s.Payout,
		ReserveRefund: s.ReserveRefund,
	}
}

func newEventResponse(e *entities.GameEvent) eventResponse {
	players := make([]string, 0, len(e.Players))
	for _, p := range e.Players {
		players = append(players, string(p))
	}
	return eventResponse{
		ID:        e.ID,
		Type:      string(e.Type),
		Code:      e.Code,
		GameType:  uint8(e.GameType),
		Actor:     string(e.Actor),
		Amount:    e.Amount,
		Winner:    string(e.Winner),
		Players:   players,
		Timestamp: e.Timestamp,
	}
}

func newTransactionResponse(t *entities.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		From:        string(t.From),
		To:          string(t.To),
		Amount:      t.Amount,
		Type:        string(t.Type),
		ReferenceID: t.ReferenceID,
		Description: t.Description,
		Timestamp:   t.Timestamp,
	}
}

func toIdentities(ids []string) []entities.Identity {
	if ids == nil {
		return nil
	}
	out := make([]entities.Identity, len(ids))
	for i, id := range ids {
		out[i] = entities.Identity(id)
	}
	return out
}
