package wager

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/fadedpez/wagerescrow/internal/logging"
	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/addressing"
	"github.com/fadedpez/wagerescrow/pkg/authority"
	"github.com/fadedpez/wagerescrow/pkg/catalog"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/history"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/fadedpez/wagerescrow/pkg/services/escrow"
	"github.com/google/uuid"
)

// Options tunes a Service. The zero value is usable.
type Options struct {
	// AllowAddressReuse lets a closed (code, type) pair be created again
	AllowAddressReuse bool

	// History receives lifecycle events after each commit. Optional.
	History history.Repository

	Logger *logging.Logger
	Clock  func() time.Time
}

// Service is the lifecycle controller for wagered games
type Service struct {
	store     ledger.Store
	catalog   *catalog.Catalog
	authority authority.Authority
	custody   escrow.Custody
	history   history.Repository
	reuse     bool
	logger    *logging.Logger
	now       func() time.Time
}

// NewService creates a lifecycle controller over store
func NewService(store ledger.Store, cat *catalog.Catalog, auth authority.Authority, custody escrow.Custody, opts Options) *Service {
	s := &Service{
		store:     store,
		catalog:   cat,
		authority: auth,
		custody:   custody,
		history:   opts.History,
		reuse:     opts.AllowAddressReuse,
		logger:    opts.Logger,
		now:       opts.Clock,
	}
	if s.logger == nil {
		s.logger = logging.Default.WithPrefix("WAGER")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Catalog returns the game catalog the service validates against
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// CreateRequest opens a new game
type CreateRequest struct {
	Creator     entities.Identity
	GameType    entities.GameType
	Code        string
	Wager       uint64
	PlayerCount uint8
}

// JoinRequest takes the next free slot of a game
type JoinRequest struct {
	Player   entities.Identity
	GameType entities.GameType
	Code     string
}

// ResolveRequest names the winner of a game by identity
type ResolveRequest struct {
	Caller      entities.Identity
	GameType    entities.GameType
	Code        string
	Winner      entities.Identity
	FirstPlayer entities.Identity

	// ExpectedPlayers, when non-nil, must equal the joined players in order
	ExpectedPlayers []entities.Identity
}

// MarkerResolveRequest names the winner of a game by slot marker
type MarkerResolveRequest struct {
	Caller      entities.Identity
	GameType    entities.GameType
	Code        string
	Marker      entities.Marker
	Destination entities.Identity
	FirstPlayer entities.Identity
}

// GameView is a read-only snapshot of an open game
type GameView struct {
	Record *entities.GameRecord
	Name   string
	Escrow uint64
}

// CreateGame opens a game record at the address derived from (code, type),
// funds its reserves from the creator and takes the creator's stake.
func (s *Service) CreateGame(ctx context.Context, req CreateRequest) (*entities.GameRecord, error) {
	if err := validateIdentity("creator", req.Creator); err != nil {
		return nil, err
	}
	if err := validateCode(req.Code); err != nil {
		return nil, err
	}
	if req.Wager == 0 {
		return nil, types.NewGameError(types.ErrInvalidAmount, "Invalid amount")
	}
	limits, err := s.catalog.Limits(req.GameType)
	if err != nil {
		return nil, err
	}
	if !s.catalog.ValidatePlayerCount(req.GameType, req.PlayerCount) {
		return nil, types.NewGameError(types.ErrInvalidPlayerCount,
			fmt.Sprintf("Invalid player count: %s takes %d to %d players", s.catalog.Name(req.GameType), limits.Min, limits.Max))
	}
	if hi, _ := bits.Mul64(req.Wager, uint64(req.PlayerCount)); hi != 0 {
		return nil, types.NewGameError(types.ErrInvalidAmount, "wager times player count overflows")
	}

	addr := addressing.GameAddress(req.Code, req.GameType)
	now := s.now()
	rec := &entities.GameRecord{
		Address:       addr,
		Code:          req.Code,
		GameType:      req.GameType,
		Wager:         req.Wager,
		MinPlayers:    limits.Min,
		MaxPlayers:    req.PlayerCount,
		PlayersJoined: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rec.Players[0] = req.Creator
	rec.Markers[0] = s.catalog.MarkerForSlot(req.GameType, 0)

	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.GetRecord(ctx, addr)
		if err == nil {
			return types.NewGameError(types.ErrGameAlreadyExists,
				fmt.Sprintf("Game %s already exists", req.Code))
		}
		if !errors.Is(err, ledger.ErrRecordNotFound) {
			return err
		}

		if !s.reuse {
			retired, err := tx.IsRetired(ctx, addr)
			if err != nil {
				return err
			}
			if retired {
				return types.NewGameError(types.ErrAddressRetired,
					fmt.Sprintf("Game code %s has already been used", req.Code))
			}
		}

		if err := tx.InsertRecord(ctx, rec); err != nil {
			return err
		}
		if err := s.custody.Open(ctx, tx, rec, req.Creator); err != nil {
			return err
		}
		if err := s.custody.Deposit(ctx, tx, rec, req.Creator, req.Wager); err != nil {
			return err
		}
		return s.checkEscrow(ctx, tx, rec)
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.logger.Info("Game %s (%s) created by %s with wager %d", rec.Code, s.catalog.Name(rec.GameType), req.Creator, rec.Wager)
	s.emit(ctx, rec, entities.EventGameCreated, req.Creator, rec.Wager)
	return rec, nil
}

// JoinGame assigns the next slot and marker to player and takes their stake
func (s *Service) JoinGame(ctx context.Context, req JoinRequest) (*entities.GameRecord, error) {
	if err := validateIdentity("player", req.Player); err != nil {
		return nil, err
	}
	if err := validateCode(req.Code); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Limits(req.GameType); err != nil {
		return nil, err
	}

	addr := addressing.GameAddress(req.Code, req.GameType)
	var rec *entities.GameRecord
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		rec, err = tx.GetRecord(ctx, addr)
		if err != nil {
			return err
		}
		if rec.IsFull() {
			return types.NewGameError(types.ErrGameFull, "Game is full")
		}
		if rec.HasPlayer(req.Player) {
			return types.NewGameError(types.ErrPlayerAlreadyJoined, "Player already joined")
		}

		slot := int(rec.PlayersJoined)
		rec.Players[slot] = req.Player
		rec.Markers[slot] = s.catalog.MarkerForSlot(rec.GameType, slot)
		rec.PlayersJoined++
		rec.UpdatedAt = s.now()

		if err := s.custody.Deposit(ctx, tx, rec, req.Player, rec.Wager); err != nil {
			return err
		}
		if err := s.checkEscrow(ctx, tx, rec); err != nil {
			return err
		}
		return tx.UpdateRecord(ctx, rec)
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.logger.Info("%s joined game %s (%d/%d)", req.Player, rec.Code, rec.PlayersJoined, rec.MaxPlayers)
	s.emit(ctx, rec, entities.EventPlayerJoined, req.Player, rec.Wager)
	return rec, nil
}

// ResolveGame pays the escrow to winner and closes the game
func (s *Service) ResolveGame(ctx context.Context, req ResolveRequest) (*escrow.Settlement, error) {
	if !s.authority.IsAuthorized(req.Caller) {
		return nil, types.NewGameError(types.ErrNotAuthorized, "Not authorized to end game")
	}

	return s.resolve(ctx, req.GameType, req.Code, req.Caller, func(rec *entities.GameRecord) (entities.Identity, error) {
		if err := s.checkFirstPlayer(rec, req.FirstPlayer); err != nil {
			return "", err
		}
		if req.ExpectedPlayers != nil && !slices.Equal(req.ExpectedPlayers, rec.JoinedPlayers()) {
			return "", types.NewGameError(types.ErrGameDataMismatch, "Player list does not match game data")
		}
		if err := checkEnoughPlayers(rec); err != nil {
			return "", err
		}
		if !rec.HasPlayer(req.Winner) {
			return "", types.NewGameError(types.ErrInvalidWinner, "Winner is not a player in this game")
		}
		return req.Winner, nil
	})
}

// ResolveByMarker pays the escrow to the player holding marker, who must be
// destination, and closes the game.
func (s *Service) ResolveByMarker(ctx context.Context, req MarkerResolveRequest) (*escrow.Settlement, error) {
	if !s.authority.IsAuthorized(req.Caller) {
		return nil, types.NewGameError(types.ErrNotAuthorized, "Not authorized to end game")
	}

	return s.resolve(ctx, req.GameType, req.Code, req.Caller, func(rec *entities.GameRecord) (entities.Identity, error) {
		if err := s.checkFirstPlayer(rec, req.FirstPlayer); err != nil {
			return "", err
		}
		if err := checkEnoughPlayers(rec); err != nil {
			return "", err
		}
		slot, ok := rec.SlotForMarker(req.Marker)
		if !ok {
			return "", types.NewGameError(types.ErrInvalidWinnerColor,
				fmt.Sprintf("No player holds %q", req.Marker))
		}
		if rec.Players[slot] != req.Destination {
			return "", types.NewGameError(types.ErrWinnerMismatch, "Winner does not match the marker holder")
		}
		return rec.Players[slot], nil
	})
}

// resolve loads the game, lets pick choose the winner and settles
func (s *Service) resolve(ctx context.Context, gameType entities.GameType, code string, caller entities.Identity, pick func(*entities.GameRecord) (entities.Identity, error)) (*escrow.Settlement, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Limits(gameType); err != nil {
		return nil, err
	}

	addr := addressing.GameAddress(code, gameType)
	var (
		rec        *entities.GameRecord
		settlement *escrow.Settlement
	)
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		rec, err = tx.GetRecord(ctx, addr)
		if err != nil {
			return err
		}

		winner, err := pick(rec)
		if err != nil {
			return err
		}
		if err := s.checkEscrow(ctx, tx, rec); err != nil {
			return err
		}

		rec.Winner = winner
		rec.UpdatedAt = s.now()
		if settlement, err = s.custody.Settle(ctx, tx, rec, winner); err != nil {
			return err
		}
		if err := tx.DeleteRecord(ctx, addr); err != nil {
			return err
		}
		if !s.reuse {
			return tx.RetireAddress(ctx, addr)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.logger.Info("Game %s resolved by %s: %s wins %d, %d reserve returned to %s",
		rec.Code, caller, settlement.Winner, settlement.Payout, settlement.ReserveRefund, settlement.Creator)
	s.emit(ctx, rec, entities.EventGameResolved, caller, settlement.Payout)
	return settlement, nil
}

// GetGame returns an open game with its current escrow balance
func (s *Service) GetGame(ctx context.Context, gameType entities.GameType, code string) (*GameView, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Limits(gameType); err != nil {
		return nil, err
	}

	addr := addressing.GameAddress(code, gameType)
	view := &GameView{Name: s.catalog.Name(gameType)}
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		if view.Record, err = tx.GetRecord(ctx, addr); err != nil {
			return err
		}
		view.Escrow, err = s.custody.Balance(ctx, tx, view.Record)
		return err
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return view, nil
}

// GameHistory returns the recorded events for (code, type), newest first
func (s *Service) GameHistory(ctx context.Context, gameType entities.GameType, code string, limit int) ([]*entities.GameEvent, error) {
	if s.history == nil {
		return []*entities.GameEvent{}, nil
	}
	events, err := s.history.GameEvents(ctx, addressing.GameAddress(code, gameType), limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to load game history", err)
	}
	return events, nil
}

// PlayerHistory returns the recorded events involving player, newest first
func (s *Service) PlayerHistory(ctx context.Context, player entities.Identity, limit int) ([]*entities.GameEvent, error) {
	if s.history == nil {
		return []*entities.GameEvent{}, nil
	}
	events, err := s.history.PlayerEvents(ctx, player, limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to load player history", err)
	}
	return events, nil
}

// checkFirstPlayer requires the creator echo under an allow-list, and
// checks it only when supplied for a single admin
func (s *Service) checkFirstPlayer(rec *entities.GameRecord, firstPlayer entities.Identity) error {
	if firstPlayer == entities.NoIdentity && s.authority.Mode() == authority.ModeSingleAdmin {
		return nil
	}
	if firstPlayer != rec.Creator() {
		return types.NewGameError(types.ErrFirstPlayerMismatch, "First player does not match game creator")
	}
	return nil
}

func checkEnoughPlayers(rec *entities.GameRecord) error {
	if rec.PlayersJoined < rec.MinPlayers {
		return types.NewGameError(types.ErrNotEnoughPlayers,
			fmt.Sprintf("Game needs at least %d players, has %d", rec.MinPlayers, rec.PlayersJoined))
	}
	return nil
}

// checkEscrow asserts custody holds exactly wager times joined players
func (s *Service) checkEscrow(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord) error {
	held, err := s.custody.Balance(ctx, tx, rec)
	if err != nil {
		return err
	}
	if want := rec.ExpectedEscrow(); held != want {
		return types.NewGameError(types.ErrInternalError,
			fmt.Sprintf("escrow for %s holds %d, expected %d", rec.Code, held, want))
	}
	return nil
}

// emit records an event after commit. Failures are logged, never returned.
func (s *Service) emit(ctx context.Context, rec *entities.GameRecord, typ entities.EventType, actor entities.Identity, amount uint64) {
	if s.history == nil {
		return
	}
	event := &entities.GameEvent{
		ID:          uuid.New().String(),
		Type:        typ,
		GameAddress: rec.Address,
		Code:        rec.Code,
		GameType:    rec.GameType,
		Actor:       actor,
		Amount:      amount,
		Winner:      rec.Winner,
		Players:     rec.JoinedPlayers(),
		Timestamp:   s.now(),
	}
	if err := s.history.RecordEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to record %s event for game %s: %v", typ, rec.Code, err)
	}
}

// mapError turns storage sentinels into game errors
func (s *Service) mapError(err error) error {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		if gameErr.Code == types.ErrInternalError {
			s.logger.LogError(gameErr)
		}
		return gameErr
	}

	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		return types.NewGameError(types.ErrGameNotFound, "Game not found")
	case errors.Is(err, ledger.ErrRecordExists):
		return types.NewGameError(types.ErrGameAlreadyExists, "Game already exists")
	case errors.Is(err, ledger.ErrAccountNotFound):
		wrapped := types.WrapError(types.ErrInternalError, "Escrow account missing", err)
		s.logger.LogError(wrapped)
		return wrapped
	default:
		wrapped := types.WrapError(types.ErrDatabaseError, "Storage failure", err)
		s.logger.LogError(wrapped)
		return wrapped
	}
}

func validateIdentity(role string, id entities.Identity) error {
	if id == entities.NoIdentity {
		return types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("%s identity is required", role))
	}
	if len(id) > entities.MaxIdentityLen {
		return types.NewGameError(types.ErrInvalidArgument,
			fmt.Sprintf("%s identity exceeds %d bytes", role, entities.MaxIdentityLen))
	}
	if strings.IndexFunc(string(id), unicode.IsControl) >= 0 {
		return types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("%s identity contains control characters", role))
	}
	return nil
}

func validateCode(code string) error {
	if code == "" || len(code) > entities.MaxCodeLen {
		return types.NewGameError(types.ErrInvalidArgument,
			fmt.Sprintf("game code must be 1 to %d bytes", entities.MaxCodeLen))
	}
	if strings.IndexFunc(code, unicode.IsControl) >= 0 {
		return types.NewGameError(types.ErrInvalidArgument, "game code contains control characters")
	}
	return nil
}
