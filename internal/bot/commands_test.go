package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
)

type CommandsTestSuite struct {
	suite.Suite
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}

func (s *CommandsTestSuite) TestCommands() {
	// Test that Commands slice is properly initialized
	s.Require().Len(Commands, 1)
	wagerCmd := Commands[0]
	s.Equal("wager", wagerCmd.Name)
	s.NotEmpty(wagerCmd.Description)

	subcommands := make(map[string]*discordgo.ApplicationCommandOption)
	for _, opt := range wagerCmd.Options {
		s.Equal(discordgo.ApplicationCommandOptionSubCommand, opt.Type)
		s.NotEmpty(opt.Description, "Subcommand %s needs a description", opt.Name)
		s.NotContains(subcommands, opt.Name, "Subcommand names should be unique")
		subcommands[opt.Name] = opt
	}

	for _, required := range []string{subCreate, subJoin, subResolve, subStatus, subWallet, subHistory, subFund} {
		s.Contains(subcommands, required)
	}
}

func (s *CommandsTestSuite) TestRequiredOptionsComeFirst() {
	for _, sub := range Commands[0].Options {
		optional := false
		for _, opt := range sub.Options {
			if !opt.Required {
				optional = true
				continue
			}
			s.False(optional, "%s: required option %s follows an optional one", sub.Name, opt.Name)
		}
	}
}

func (s *CommandsTestSuite) TestGameChoices() {
	opt := gameOption(true)

	names := make([]string, 0, len(opt.Choices))
	for _, c := range opt.Choices {
		names = append(names, c.Name)
	}
	s.Equal([]string{"ludo", "ttt", "s&l"}, names)
}
