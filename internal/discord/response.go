package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/wagerescrow/internal/types"
)

// ResponseEmoji maps error codes to appropriate emojis
var ResponseEmoji = map[types.ErrorCode]string{
	types.ErrInvalidAmount:       "💸",
	types.ErrInvalidGameType:     "🎲",
	types.ErrInvalidPlayerCount:  "👥",
	types.ErrGameAlreadyExists:   "📛",
	types.ErrAddressRetired:      "🪦",
	types.ErrGameNotFound:        "🔍",
	types.ErrGameFull:            "🈵",
	types.ErrPlayerAlreadyJoined: "✋",
	types.ErrInsufficientFunds:   "🪙",
	types.ErrNotAuthorized:       "🚫",
	types.ErrInvalidWinner:       "🏳️",
	types.ErrWinnerMismatch:      "🔀",
	types.ErrInvalidWinnerColor:  "🎨",
	types.ErrFirstPlayerMismatch: "👑",
	types.ErrGameDataMismatch:    "📋",
	types.ErrNotEnoughPlayers:    "🤷",
	types.ErrInvalidArgument:     "❗",
	types.ErrInternalError:       "💥",
	types.ErrDatabaseError:       "💾",
}

// Response represents a Discord interaction response
type Response struct {
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Ephemeral bool
}

// NewResponse creates a new Response visible to the channel
func NewResponse(content string, embeds ...*discordgo.MessageEmbed) *Response {
	return &Response{Content: content, Embeds: embeds}
}

// NewEphemeralResponse creates a new ephemeral Response (only visible to the user)
func NewEphemeralResponse(content string, embeds ...*discordgo.MessageEmbed) *Response {
	return &Response{Content: content, Embeds: embeds, Ephemeral: true}
}

// NewErrorResponse creates a new error Response
func NewErrorResponse(err error) *Response {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		emoji := ResponseEmoji[gameErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return NewEphemeralResponse(fmt.Sprintf("%s %s", emoji, gameErr.Message))
	}
	return NewEphemeralResponse(fmt.Sprintf("❌ An error occurred: %v", err))
}

// SendResponse sends a response to a Discord interaction
func SendResponse(s SessionHandler, i *discordgo.InteractionCreate, r *Response) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: r.Content,
			Embeds:  r.Embeds,
			Flags:   getFlags(r.Ephemeral),
		},
	})
}

// SendErrorResponse sends an error response
func SendErrorResponse(s SessionHandler, i *discordgo.InteractionCreate, err error) error {
	return SendResponse(s, i, NewErrorResponse(err))
}

func getFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
