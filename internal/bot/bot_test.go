package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/wagerescrow/internal/config"
	discordmock "github.com/fadedpez/wagerescrow/internal/discord/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BotTestSuite struct {
	suite.Suite
	session *discordmock.SessionHandler
	config  *config.Config
	bot     *Bot
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}

func (s *BotTestSuite) SetupTest() {
	s.session = &discordmock.SessionHandler{}
	s.session.Test(s.T())
	s.config = &config.Config{
		AppID:       "test-app-id",
		GuildID:     "test-guild-id",
		Environment: "development",
	}

	// Mock AddHandler calls
	s.session.On("AddHandler", mock.AnythingOfType("func(*discordgo.Session, *discordgo.InteractionCreate)")).Return(func() {})

	s.bot = New(s.config, s.session, nil, nil)
}

func (s *BotTestSuite) TestRegisterCommands() {
	// Setup
	s.session.On("Open").Return(nil)

	registeredCmd := &discordgo.ApplicationCommand{
		ID:   "new-cmd-id",
		Name: "wager",
	}
	s.session.On("ApplicationCommandCreate", s.config.AppID, s.config.GuildID, mock.Anything).
		Return(registeredCmd, nil)

	// Execute
	err := s.bot.Start()

	// Assert
	s.Require().NoError(err)
	s.session.AssertExpectations(s.T())
	s.Equal(len(Commands), len(s.bot.commands))
}

func (s *BotTestSuite) TestRegisterCommandsError() {
	// Setup
	s.session.On("Open").Return(nil)
	s.session.On("ApplicationCommandCreate", s.config.AppID, s.config.GuildID, mock.Anything).
		Return(nil, assert.AnError)

	// Execute
	err := s.bot.Start()

	// Assert
	s.Require().Error(err)
	s.session.AssertExpectations(s.T())
	s.Empty(s.bot.commands)
}

func (s *BotTestSuite) TestOpenError() {
	s.session.On("Open").Return(assert.AnError)

	err := s.bot.Start()

	s.Require().ErrorIs(err, assert.AnError)
	s.session.AssertNotCalled(s.T(), "ApplicationCommandCreate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *BotTestSuite) TestCleanupCommands() {
	// Setup
	existingCmds := []*discordgo.ApplicationCommand{
		{ID: "cmd1", Name: "test1"},
		{ID: "cmd2", Name: "test2"},
	}
	s.session.On("ApplicationCommands", s.config.AppID, s.config.GuildID).
		Return(existingCmds, nil)

	for _, cmd := range existingCmds {
		s.session.On("ApplicationCommandDelete", s.config.AppID, s.config.GuildID, cmd.ID).
			Return(nil)
	}

	// Execute
	err := s.bot.cleanupCommands()

	// Assert
	s.Require().NoError(err)
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestCleanupCommandsError() {
	// Setup
	s.session.On("ApplicationCommands", s.config.AppID, s.config.GuildID).
		Return(nil, assert.AnError)

	// Execute
	err := s.bot.cleanupCommands()

	// Assert
	s.Require().Error(err)
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestShutdownInDevelopment() {
	// Setup
	s.session.On("ApplicationCommands", s.config.AppID, s.config.GuildID).
		Return([]*discordgo.ApplicationCommand{{ID: "cmd1", Name: "wager"}}, nil)
	s.session.On("ApplicationCommandDelete", s.config.AppID, s.config.GuildID, "cmd1").Return(nil)
	s.session.On("Close").Return(nil)

	// Execute
	s.bot.Shutdown()

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestShutdownInProduction() {
	s.config.Environment = "production"
	s.session.On("Close").Return(nil)

	s.bot.Shutdown()

	s.session.AssertNotCalled(s.T(), "ApplicationCommands", mock.Anything, mock.Anything)
	s.session.AssertExpectations(s.T())
}
