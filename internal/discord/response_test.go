package discord

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	discordmock "github.com/fadedpez/wagerescrow/internal/discord/mock"
	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ResponseTestSuite struct {
	suite.Suite
	session     *discordmock.SessionHandler
	interaction *discordgo.InteractionCreate
}

func TestResponseSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) SetupTest() {
	s.session = &discordmock.SessionHandler{}
	s.session.Test(s.T())
	s.interaction = &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:   "test_interaction",
			Type: discordgo.InteractionApplicationCommand,
		},
	}
}

func (s *ResponseTestSuite) TestNewResponse() {
	embed := &discordgo.MessageEmbed{Title: "Game"}

	resp := NewResponse("content", embed)

	s.Equal("content", resp.Content)
	s.Equal([]*discordgo.MessageEmbed{embed}, resp.Embeds)
	s.False(resp.Ephemeral)
}

func (s *ResponseTestSuite) TestNewEphemeralResponse() {
	resp := NewEphemeralResponse("just you")

	s.Equal("just you", resp.Content)
	s.Empty(resp.Embeds)
	s.True(resp.Ephemeral)
}

func (s *ResponseTestSuite) TestNewErrorResponse() {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "plain error",
			err:      errors.New("test error"),
			expected: "❌ An error occurred: test error",
		},
		{
			name:     "game error",
			err:      types.NewGameError(types.ErrGameFull, "Game is full"),
			expected: "🈵 Game is full",
		},
		{
			name:     "wrapped game error",
			err:      types.WrapError(types.ErrDatabaseError, "Storage failure", errors.New("disk")),
			expected: "💾 Storage failure",
		},
		{
			name:     "unmapped code",
			err:      types.NewGameError(types.ErrorCode("SOMETHING_NEW"), "odd"),
			expected: "❌ odd",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp := NewErrorResponse(tc.err)

			s.Equal(tc.expected, resp.Content)
			s.True(resp.Ephemeral)
		})
	}
}

func (s *ResponseTestSuite) TestEveryCodeHasEmoji() {
	for _, code := range []types.ErrorCode{
		types.ErrInvalidAmount, types.ErrInvalidGameType, types.ErrInvalidPlayerCount,
		types.ErrGameFull, types.ErrPlayerAlreadyJoined, types.ErrNotAuthorized,
		types.ErrInvalidWinner, types.ErrWinnerMismatch, types.ErrInvalidWinnerColor,
		types.ErrFirstPlayerMismatch, types.ErrGameDataMismatch,
	} {
		s.NotEmpty(ResponseEmoji[code], string(code))
	}
}

func (s *ResponseTestSuite) TestSendResponse() {
	// Setup
	resp := NewEphemeralResponse("hidden")
	s.session.On("InteractionRespond", s.interaction.Interaction, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Type == discordgo.InteractionResponseChannelMessageWithSource &&
			r.Data.Content == "hidden" &&
			r.Data.Flags == discordgo.MessageFlagsEphemeral
	})).Return(nil)

	// Execute
	err := SendResponse(s.session, s.interaction, resp)

	// Assert
	s.NoError(err)
	s.session.AssertExpectations(s.T())
}

func (s *ResponseTestSuite) TestSendErrorResponse() {
	s.session.On("InteractionRespond", s.interaction.Interaction, mock.Anything).Return(errors.New("gateway down"))

	err := SendErrorResponse(s.session, s.interaction, errors.New("test error"))

	s.EqualError(err, "gateway down")
	s.session.AssertExpectations(s.T())
}
