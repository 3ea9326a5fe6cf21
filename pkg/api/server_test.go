package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/authority"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/catalog"
	"github.com/fadedpez/wagerescrow/pkg/repositories/history"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/fadedpez/wagerescrow/pkg/services/escrow"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
	"github.com/fadedpez/wagerescrow/pkg/services/wallet"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	server *Server
	tokens *JWTManager
}

func TestServerSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	store := ledger.NewMemoryStore()
	custody, err := escrow.New(string(escrow.KindWrapped), escrow.DefaultReserveSchedule())
	s.Require().NoError(err)

	games := wager.NewService(store, catalog.Default(), authority.NewAllowList("admin"), custody, wager.Options{
		History: history.NewMemoryRepository(),
	})
	s.tokens = NewJWTManager("test-secret")
	s.server = NewServer(games, wallet.NewService(store, 100_000_000), s.tokens, Options{AllowFunding: true})
}

func (s *ServerTestSuite) do(method, path, identity string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		token, err := s.tokens.Generate(entities.Identity(identity), time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(res, req)
	return res
}

func (s *ServerTestSuite) decode(res *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(res.Body.Bytes(), out), res.Body.String())
}

func (s *ServerTestSuite) errorCode(res *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	s.decode(res, &body)
	return body.Error
}

func (s *ServerTestSuite) create(creator, gameType, code string, stake uint64, players uint8) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/v1/games", creator, gin.H{
		"game_type":    gameType,
		"code":         code,
		"wager":        stake,
		"player_count": players,
	})
}

func (s *ServerTestSuite) TestAuthRequired() {
	res := s.do(http.MethodGet, "/v1/wallet", "", nil)
	s.Equal(http.StatusUnauthorized, res.Code)
	s.Equal("MISSING_TOKEN", s.errorCode(res))

	req := httptest.NewRequest(http.MethodGet, "/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("INVALID_TOKEN", s.errorCode(rec))
}

func (s *ServerTestSuite) TestCreateGame() {
	// Execute
	res := s.create("alice", "ludo", "g1", 1000, 4)

	// Assert
	s.Require().Equal(http.StatusCreated, res.Code, res.Body.String())
	var game gameResponse
	s.decode(res, &game)
	s.Equal("g1", game.Code)
	s.Equal("ludo", game.Game)
	s.Equal([]string{"alice"}, game.Players)
	s.Equal([]string{"red"}, game.Markers)
	s.Equal(uint64(1000), game.Escrow)
	s.Equal(uint8(2), game.MinPlayers)
	s.Equal(uint8(4), game.MaxPlayers)
}

func (s *ServerTestSuite) TestCreateGameMalformedBody() {
	res := s.do(http.MethodPost, "/v1/games", "alice", gin.H{"wager": 10})

	s.Equal(http.StatusBadRequest, res.Code)
	s.Equal("INVALID_ARGUMENT", s.errorCode(res))
}

func (s *ServerTestSuite) TestJoinAndGetGame() {
	// Setup
	s.Require().Equal(http.StatusCreated, s.create("alice", "ttt", "t1", 500, 2).Code)

	// Execute
	joined := s.do(http.MethodPost, "/v1/games/ttt/t1/join", "bob", nil)
	got := s.do(http.MethodGet, "/v1/games/1/t1", "carol", nil)

	// Assert
	s.Require().Equal(http.StatusOK, joined.Code, joined.Body.String())
	s.Require().Equal(http.StatusOK, got.Code, got.Body.String())
	var game gameResponse
	s.decode(got, &game)
	s.Equal([]string{"alice", "bob"}, game.Players)
	s.Equal([]string{"O", "X"}, game.Markers)
	s.Equal(uint64(1000), game.Escrow)
}

func (s *ServerTestSuite) TestResolveGame() {
	// Setup
	s.Require().Equal(http.StatusCreated, s.create("alice", "ludo", "g1", 1000, 2).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/v1/games/ludo/g1/join", "bob", nil).Code)

	// Execute
	res := s.do(http.MethodPost, "/v1/games/ludo/g1/resolve", "admin", gin.H{
		"winner":           "bob",
		"first_player":     "alice",
		"expected_players": []string{"alice", "bob"},
	})

	// Assert
	s.Require().Equal(http.StatusOK, res.Code, res.Body.String())
	var settlement settlementResponse
	s.decode(res, &settlement)
	s.Equal("bob", settlement.Winner)
	s.Equal("alice", settlement.Creator)
	s.Equal(uint64(2000), settlement.Payout)
	s.NotZero(settlement.ReserveRefund)

	gone := s.do(http.MethodGet, "/v1/games/ludo/g1", "admin", nil)
	s.Equal(http.StatusNotFound, gone.Code)

	again := s.create("alice", "ludo", "g1", 1000, 2)
	s.Equal(http.StatusConflict, again.Code)
	s.Equal(string(types.ErrAddressRetired), s.errorCode(again))
}

func (s *ServerTestSuite) TestResolveByMarker() {
	s.Require().Equal(http.StatusCreated, s.create("alice", "s&l", "g1", 10, 3).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/v1/games/2/g1/join", "bob", nil).Code)

	res := s.do(http.MethodPost, "/v1/games/2/g1/resolve", "admin", gin.H{
		"winner_marker": "blue",
		"destination":   "bob",
		"first_player":  "alice",
	})

	s.Require().Equal(http.StatusOK, res.Code, res.Body.String())
	var settlement settlementResponse
	s.decode(res, &settlement)
	s.Equal("bob", settlement.Winner)
	s.Equal(uint64(20), settlement.Payout)
}

func (s *ServerTestSuite) TestErrorStatuses() {
	s.Require().Equal(http.StatusCreated, s.create("alice", "ttt", "t1", 500, 2).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/v1/games/ttt/t1/join", "bob", nil).Code)

	tests := []struct {
		name   string
		res    *httptest.ResponseRecorder
		status int
		code   types.ErrorCode
	}{
		{"unknown type", s.do(http.MethodGet, "/v1/games/chess/t1", "bob", nil), http.StatusBadRequest, types.ErrInvalidGameType},
		{"missing game", s.do(http.MethodGet, "/v1/games/ttt/nope", "bob", nil), http.StatusNotFound, types.ErrGameNotFound},
		{"duplicate create", s.create("alice", "ttt", "t1", 500, 2), http.StatusConflict, types.ErrGameAlreadyExists},
		{"full", s.do(http.MethodPost, "/v1/games/ttt/t1/join", "carol", nil), http.StatusConflict, types.ErrGameFull},
		{"zero wager", s.create("alice", "ttt", "t2", 0, 2), http.StatusBadRequest, types.ErrInvalidAmount},
		{"too rich", s.create("alice", "ttt", "t3", 1_000_000_000, 2), http.StatusPaymentRequired, types.ErrInsufficientFunds},
		{"not authority", s.do(http.MethodPost, "/v1/games/ttt/t1/resolve", "bob", gin.H{"winner": "bob", "first_player": "alice"}), http.StatusForbidden, types.ErrNotAuthorized},
		{"wrong first player", s.do(http.MethodPost, "/v1/games/ttt/t1/resolve", "admin", gin.H{"winner": "bob", "first_player": "bob"}), http.StatusBadRequest, types.ErrFirstPlayerMismatch},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.status, tt.res.Code, tt.res.Body.String())
			s.Equal(string(tt.code), s.errorCode(tt.res))
		})
	}
}

func (s *ServerTestSuite) TestGameEvents() {
	s.Require().Equal(http.StatusCreated, s.create("alice", "ludo", "g1", 1000, 2).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/v1/games/ludo/g1/join", "bob", nil).Code)

	res := s.do(http.MethodGet, "/v1/games/ludo/g1/events?limit=1", "carol", nil)

	s.Require().Equal(http.StatusOK, res.Code)
	var body struct {
		Events []eventResponse `json:"events"`
	}
	s.decode(res, &body)
	s.Require().Len(body.Events, 1)
	s.Equal("PLAYER_JOINED", body.Events[0].Type)
	s.Equal("bob", body.Events[0].Actor)

	bad := s.do(http.MethodGet, "/v1/games/ludo/g1/events?limit=zero", "carol", nil)
	s.Equal(http.StatusBadRequest, bad.Code)
}

func (s *ServerTestSuite) TestWallet() {
	fund := s.do(http.MethodPost, "/v1/wallet/fund", "dave", gin.H{"amount": 5})
	s.Require().Equal(http.StatusOK, fund.Code, fund.Body.String())

	res := s.do(http.MethodGet, "/v1/wallet", "dave", nil)

	s.Require().Equal(http.StatusOK, res.Code)
	var wallet walletResponse
	s.decode(res, &wallet)
	s.Equal("dave", wallet.Identity)
	s.Equal(uint64(5), wallet.Balance)
	s.Require().Len(wallet.Transactions, 1)
	s.Equal("FUNDING", wallet.Transactions[0].Type)
}

func (s *ServerTestSuite) TestFundingDisabled() {
	server := NewServer(s.server.games, s.server.wallets, s.tokens, Options{})
	token, err := s.tokens.Generate("dave", time.Hour)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/v1/wallet/fund", bytes.NewBufferString(`{"amount":5}`))
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	server.Handler().ServeHTTP(res, req)

	s.Equal(http.StatusNotFound, res.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusPaymentRequired, StatusFor(types.ErrInsufficientFunds))
	assert.Equal(t, http.StatusConflict, StatusFor(types.ErrPlayerAlreadyJoined))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(types.ErrDatabaseError))
	require.Equal(t, http.StatusInternalServerError, StatusFor(types.ErrorCode("SOMETHING_NEW")))
}
