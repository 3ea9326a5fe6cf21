package api

import (
	"net/http"
	"strconv"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/services/escrow"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
	"github.com/gin-gonic/gin"
)

const (
	defaultEventLimit = 50
	walletTxLimit     = 20
)

func (s *Server) createGame(ctx *gin.Context) {
	var req createGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorInvalidRequestFormatJson)
		return
	}

	gameType, err := s.games.Catalog().ParseGameType(req.GameType)
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	creator := caller(ctx)
	if _, _, err := s.wallets.GetOrCreateWallet(ctx.Request.Context(), creator); err != nil {
		s.abortWithError(ctx, err)
		return
	}

	rec, err := s.games.CreateGame(ctx.Request.Context(), wager.CreateRequest{
		Creator:     creator,
		GameType:    gameType,
		Code:        req.Code,
		Wager:       req.Wager,
		PlayerCount: req.PlayerCount,
	})
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newGameResponse(s.games.Catalog().Name(gameType), rec, rec.ExpectedEscrow()))
}

func (s *Server) joinGame(ctx *gin.Context) {
	gameType, ok := s.gameType(ctx)
	if !ok {
		return
	}

	player := caller(ctx)
	if _, _, err := s.wallets.GetOrCreateWallet(ctx.Request.Context(), player); err != nil {
		s.abortWithError(ctx, err)
		return
	}

	rec, err := s.games.JoinGame(ctx.Request.Context(), wager.JoinRequest{
		Player:   player,
		GameType: gameType,
		Code:     ctx.Param("code"),
	})
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newGameResponse(s.games.Catalog().Name(gameType), rec, rec.ExpectedEscrow()))
}

func (s *Server) resolveGame(ctx *gin.Context) {
	gameType, ok := s.gameType(ctx)
	if !ok {
		return
	}

	var req resolveGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorInvalidRequestFormatJson)
		return
	}

	var (
		settlement *escrow.Settlement
		err        error
	)
	if req.WinnerMarker != "" {
		destination := req.Destination
		if destination == "" {
			destination = req.Winner
		}
		settlement, err = s.games.ResolveByMarker(ctx.Request.Context(), wager.MarkerResolveRequest{
			Caller:      caller(ctx),
			GameType:    gameType,
			Code:        ctx.Param("code"),
			Marker:      entities.Marker(req.WinnerMarker),
			Destination: entities.Identity(destination),
			FirstPlayer: entities.Identity(req.FirstPlayer),
		})
	} else {
		settlement, err = s.games.ResolveGame(ctx.Request.Context(), wager.ResolveRequest{
			Caller:          caller(ctx),
			GameType:        gameType,
			Code:            ctx.Param("code"),
			Winner:          entities.Identity(req.Winner),
			FirstPlayer:     entities.Identity(req.FirstPlayer),
			ExpectedPlayers: toIdentities(req.ExpectedPlayers),
		})
	}
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newSettlementResponse(settlement))
}

func (s *Server) getGame(ctx *gin.Context) {
	gameType, ok := s.gameType(ctx)
	if !ok {
		return
	}

	view, err := s.games.GetGame(ctx.Request.Context(), gameType, ctx.Param("code"))
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newGameResponse(view.Name, view.Record, view.Escrow))
}

func (s *Server) gameEvents(ctx *gin.Context) {
	gameType, ok := s.gameType(ctx)
	if !ok {
		return
	}

	limit := defaultEventLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.abortWithError(ctx, types.NewGameError(types.ErrInvalidArgument, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	events, err := s.games.GameHistory(ctx.Request.Context(), gameType, ctx.Param("code"), limit)
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e))
	}
	ctx.JSON(http.StatusOK, gin.H{"events": out})
}

func (s *Server) getWallet(ctx *gin.Context) {
	id := caller(ctx)
	account, _, err := s.wallets.GetOrCreateWallet(ctx.Request.Context(), id)
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	txs, err := s.wallets.GetRecentTransactions(ctx.Request.Context(), id, walletTxLimit)
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}

	resp := walletResponse{
		Identity:     string(id),
		Balance:      account.Balance,
		Transactions: make([]transactionResponse, 0, len(txs)),
	}
	for _, t := range txs {
		resp.Transactions = append(resp.Transactions, newTransactionResponse(t))
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) fundWallet(ctx *gin.Context) {
	var req fundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorInvalidRequestFormatJson)
		return
	}

	id := caller(ctx)
	if err := s.wallets.Fund(ctx.Request.Context(), id, req.Amount, "api fund"); err != nil {
		s.abortWithError(ctx, err)
		return
	}

	balance, err := s.wallets.GetBalance(ctx.Request.Context(), id)
	if err != nil {
		s.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"identity": string(id), "balance": balance})
}

func (s *Server) gameType(ctx *gin.Context) (entities.GameType, bool) {
	gameType, err := s.games.Catalog().ParseGameType(ctx.Param("type"))
	if err != nil {
		s.abortWithError(ctx, err)
		return 0, false
	}
	return gameType, true
}
