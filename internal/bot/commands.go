package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/wagerescrow/pkg/catalog"
	"github.com/fadedpez/wagerescrow/pkg/entities"
)

// Subcommand names of /wager
const (
	subCreate  = "create"
	subJoin    = "join"
	subResolve = "resolve"
	subStatus  = "status"
	subWallet  = "wallet"
	subHistory = "history"
	subFund    = "fund"
)

var minOne = 1.0

// Commands defines all slash commands for the bot
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "wager",
		Description: "Escrow-backed wagers on ludo, tic-tac-toe and snakes & ladders",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subCreate,
				Description: "Open a game and stake the wager",
				Options: []*discordgo.ApplicationCommandOption{
					gameOption(true),
					codeOption(true),
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "wager",
						Description: "Stake every player puts in",
						Required:    true,
						MinValue:    &minOne,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "players",
						Description: "Number of players allowed to join",
						Required:    true,
						MinValue:    &minOne,
						MaxValue:    4,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subJoin,
				Description: "Join an open game and stake the wager",
				Options:     []*discordgo.ApplicationCommandOption{gameOption(true), codeOption(true)},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subResolve,
				Description: "Pay the pot to the winner",
				Options: []*discordgo.ApplicationCommandOption{
					gameOption(true),
					codeOption(true),
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "winner",
						Description: "Winning player",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "marker",
						Description: "Winning color or symbol; the winner must hold it",
					},
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "first_player",
						Description: "Player who created the game",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subStatus,
				Description: "Show an open game",
				Options:     []*discordgo.ApplicationCommandOption{gameOption(true), codeOption(true)},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subWallet,
				Description: "Show your balance and recent transactions",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subHistory,
				Description: "Show recent game events, yours or one game's",
				Options: []*discordgo.ApplicationCommandOption{
					gameOption(false),
					codeOption(false),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subFund,
				Description: "Add funds to your wallet (development only)",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "amount",
						Description: "Amount to add",
						Required:    true,
						MinValue:    &minOne,
					},
				},
			},
		},
	},
}

func gameOption(required bool) *discordgo.ApplicationCommandOption {
	entries := catalog.DefaultEntries()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(entries))
	for _, e := range entries {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: e.Name, Value: e.Name})
	}
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "game",
		Description: "Game type",
		Required:    required,
		Choices:     choices,
	}
}

func codeOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "code",
		Description: "Game code shared with the other players",
		Required:    required,
		MaxLength:   entities.MaxCodeLen,
	}
}
