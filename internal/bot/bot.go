package bot

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/fadedpez/wagerescrow/internal/discord"
	"github.com/fadedpez/wagerescrow/internal/logging"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
	"github.com/fadedpez/wagerescrow/pkg/services/wallet"
)

// Bot represents the Discord bot and its dependencies
type Bot struct {
	config     *config.Config
	session    discord.SessionHandler
	commands   []*discordgo.ApplicationCommand
	games      *wager.Service
	wallets    wallet.WalletService
	logger     *logging.Logger
	shutdownWg sync.WaitGroup
}

// New creates a new instance of Bot on an unopened session
func New(cfg *config.Config, session discord.SessionHandler, games *wager.Service, wallets wallet.WalletService) *Bot {
	bot := &Bot{
		config:   cfg,
		session:  session,
		commands: make([]*discordgo.ApplicationCommand, 0),
		games:    games,
		wallets:  wallets,
		logger:   logging.Default.WithPrefix("BOT"),
	}

	bot.registerHandlers()
	return bot
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteractionCreate)
}

// Start initializes the bot and connects to Discord
func (b *Bot) Start() error {
	// Open connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

func (b *Bot) registerCommands() error {
	for _, cmd := range Commands {
		created, err := b.session.ApplicationCommandCreate(b.config.AppID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create %q command: %w", cmd.Name, err)
		}
		b.commands = append(b.commands, created)
	}
	b.logger.Info("Registered %d commands", len(b.commands))
	return nil
}

// cleanupCommands removes every command registered for the app
func (b *Bot) cleanupCommands() error {
	registered, err := b.session.ApplicationCommands(b.config.AppID, b.config.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list commands: %w", err)
	}

	for _, cmd := range registered {
		if err := b.session.ApplicationCommandDelete(b.config.AppID, b.config.GuildID, cmd.ID); err != nil {
			return fmt.Errorf("failed to delete command %q: %w", cmd.Name, err)
		}
	}
	b.commands = b.commands[:0]
	return nil
}

// Shutdown gracefully shuts down the bot
func (b *Bot) Shutdown() {
	// Cleanup commands if in development
	if b.config.IsDevelopment() {
		if err := b.cleanupCommands(); err != nil {
			b.logger.Warn("Error cleaning up commands: %v", err)
		}
	}

	// Close Discord session
	if err := b.session.Close(); err != nil {
		b.logger.Error("Error closing Discord session: %v", err)
	}

	// Wait for any ongoing operations to complete
	b.shutdownWg.Wait()
}

// handleInteractionCreate handles Discord interaction events
func (b *Bot) handleInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	if i.Type == discordgo.InteractionApplicationCommand {
		b.handleSlashCommand(b.session, i)
	}
}
