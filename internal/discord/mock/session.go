package mock

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

// SessionHandler is a mock implementation of discord.SessionHandler
type SessionHandler struct {
	mock.Mock
}

func (s *SessionHandler) InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse) error {
	args := s.Called(i, r)
	return args.Error(0)
}

func (s *SessionHandler) ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	args := s.Called(appID, guildID, cmd)
	if created, ok := args.Get(0).(*discordgo.ApplicationCommand); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *SessionHandler) ApplicationCommandDelete(appID string, guildID string, cmdID string) error {
	args := s.Called(appID, guildID, cmdID)
	return args.Error(0)
}

func (s *SessionHandler) ApplicationCommands(appID string, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := s.Called(appID, guildID)
	if cmds, ok := args.Get(0).([]*discordgo.ApplicationCommand); ok {
		return cmds, args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *SessionHandler) Open() error {
	args := s.Called()
	return args.Error(0)
}

func (s *SessionHandler) Close() error {
	args := s.Called()
	return args.Error(0)
}

func (s *SessionHandler) AddHandler(handler interface{}) func() {
	args := s.Called(handler)
	if remove, ok := args.Get(0).(func()); ok {
		return remove
	}
	return func() {}
}
