package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/wagerescrow/internal/discord"
	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/services/escrow"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
)

const (
	requestTimeout  = 5 * time.Second
	recentTxLimit   = 5
	recentEventsMax = 10
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

// handleSlashCommand handles all slash commands
func (b *Bot) handleSlashCommand(s discord.SessionHandler, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "wager" || len(data.Options) == 0 {
		b.logger.Warn("Unknown command: %s", data.Name)
		b.respondError(s, i, types.NewGameError(types.ErrInvalidArgument, "Unknown command"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sub := data.Options[0]
	opts := make(options, len(sub.Options))
	for _, o := range sub.Options {
		opts[o.Name] = o
	}

	caller := callerIdentity(i)
	if caller == entities.NoIdentity {
		b.respondError(s, i, types.NewGameError(types.ErrInvalidArgument, "Cannot tell who you are"))
		return
	}

	var (
		resp *discord.Response
		err  error
	)
	switch sub.Name {
	case subCreate:
		resp, err = b.handleCreate(ctx, caller, opts)
	case subJoin:
		resp, err = b.handleJoin(ctx, caller, opts)
	case subResolve:
		resp, err = b.handleResolve(ctx, caller, opts)
	case subStatus:
		resp, err = b.handleStatus(ctx, opts)
	case subWallet:
		resp, err = b.handleWallet(ctx, caller)
	case subHistory:
		resp, err = b.handleHistory(ctx, caller, opts)
	case subFund:
		resp, err = b.handleFund(ctx, caller, opts)
	default:
		err = types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("Unknown subcommand %q", sub.Name))
	}
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	if err := discord.SendResponse(s, i, resp); err != nil {
		b.logger.Error("Error responding to /wager %s: %v", sub.Name, err)
	}
}

func (b *Bot) respondError(s discord.SessionHandler, i *discordgo.InteractionCreate, err error) {
	if err := discord.SendErrorResponse(s, i, err); err != nil {
		b.logger.Error("Error sending error response: %v", err)
	}
}

func (b *Bot) handleCreate(ctx context.Context, caller entities.Identity, opts options) (*discord.Response, error) {
	gameType, code, err := b.gameRef(opts)
	if err != nil {
		return nil, err
	}
	amount, err := positiveInt(opts, "wager")
	if err != nil {
		return nil, err
	}
	players, err := positiveInt(opts, "players")
	if err != nil {
		return nil, err
	}
	if players > entities.MaxSlots {
		return nil, types.NewGameError(types.ErrInvalidPlayerCount, "Too many players")
	}

	if _, _, err := b.wallets.GetOrCreateWallet(ctx, caller); err != nil {
		return nil, err
	}

	rec, err := b.games.CreateGame(ctx, wager.CreateRequest{
		Creator:     caller,
		GameType:    gameType,
		Code:        code,
		Wager:       amount,
		PlayerCount: uint8(players),
	})
	if err != nil {
		return nil, err
	}

	name := b.games.Catalog().Name(gameType)
	return discord.NewResponse(
		fmt.Sprintf("🎲 %s opened %s game `%s` for %d a head. Join with `/wager join`.", mention(caller), name, rec.Code, rec.Wager),
		gameEmbed(name, rec, rec.ExpectedEscrow()),
	), nil
}

func (b *Bot) handleJoin(ctx context.Context, caller entities.Identity, opts options) (*discord.Response, error) {
	gameType, code, err := b.gameRef(opts)
	if err != nil {
		return nil, err
	}

	if _, _, err := b.wallets.GetOrCreateWallet(ctx, caller); err != nil {
		return nil, err
	}

	rec, err := b.games.JoinGame(ctx, wager.JoinRequest{Player: caller, GameType: gameType, Code: code})
	if err != nil {
		return nil, err
	}

	name := b.games.Catalog().Name(gameType)
	return discord.NewResponse(
		fmt.Sprintf("🤝 %s joined `%s` as %s (%d/%d)", mention(caller), rec.Code, rec.Markers[rec.PlayersJoined-1], rec.PlayersJoined, rec.MaxPlayers),
		gameEmbed(name, rec, rec.ExpectedEscrow()),
	), nil
}

func (b *Bot) handleResolve(ctx context.Context, caller entities.Identity, opts options) (*discord.Response, error) {
	gameType, code, err := b.gameRef(opts)
	if err != nil {
		return nil, err
	}
	winner := userOption(opts, "winner")
	if winner == entities.NoIdentity {
		return nil, types.NewGameError(types.ErrInvalidArgument, "A winner is required")
	}
	firstPlayer := userOption(opts, "first_player")

	var settlement *escrow.Settlement
	if marker := stringOption(opts, "marker"); marker != "" {
		settlement, err = b.games.ResolveByMarker(ctx, wager.MarkerResolveRequest{
			Caller:      caller,
			GameType:    gameType,
			Code:        code,
			Marker:      entities.Marker(marker),
			Destination: winner,
			FirstPlayer: firstPlayer,
		})
	} else {
		settlement, err = b.games.ResolveGame(ctx, wager.ResolveRequest{
			Caller:      caller,
			GameType:    gameType,
			Code:        code,
			Winner:      winner,
			FirstPlayer: firstPlayer,
		})
	}
	if err != nil {
		return nil, err
	}

	return discord.NewResponse(fmt.Sprintf("🏆 %s wins %d from `%s`! %d in reserves went back to %s.",
		mention(settlement.Winner), settlement.Payout, code, settlement.ReserveRefund, mention(settlement.Creator))), nil
}

func (b *Bot) handleStatus(ctx context.Context, opts options) (*discord.Response, error) {
	gameType, code, err := b.gameRef(opts)
	if err != nil {
		return nil, err
	}

	view, err := b.games.GetGame(ctx, gameType, code)
	if err != nil {
		return nil, err
	}
	return discord.NewEphemeralResponse("", gameEmbed(view.Name, view.Record, view.Escrow)), nil
}

func (b *Bot) handleWallet(ctx context.Context, caller entities.Identity) (*discord.Response, error) {
	account, created, err := b.wallets.GetOrCreateWallet(ctx, caller)
	if err != nil {
		return nil, err
	}
	txs, err := b.wallets.GetRecentTransactions(ctx, caller, recentTxLimit)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title: "💰 Wallet",
		Color: 0xF1C40F,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Balance", Value: fmt.Sprintf("%d", account.Balance), Inline: true},
		},
	}
	if created {
		embed.Description = "New wallet created."
	}
	if len(txs) > 0 {
		lines := make([]string, 0, len(txs))
		for _, t := range txs {
			sign := "+"
			if t.From == account.Address {
				sign = "-"
			}
			lines = append(lines, fmt.Sprintf("`%s%d` %s", sign, t.Amount, strings.ToLower(string(t.Type))))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Recent", Value: strings.Join(lines, "\n")})
	}
	return discord.NewEphemeralResponse("", embed), nil
}

func (b *Bot) handleHistory(ctx context.Context, caller entities.Identity, opts options) (*discord.Response, error) {
	var (
		events []*entities.GameEvent
		err    error
		title  string
	)
	if stringOption(opts, "code") != "" {
		gameType, code, gerr := b.gameRef(opts)
		if gerr != nil {
			return nil, gerr
		}
		events, err = b.games.GameHistory(ctx, gameType, code, recentEventsMax)
		title = fmt.Sprintf("📜 %s %s", b.games.Catalog().Name(gameType), code)
	} else {
		events, err = b.games.PlayerHistory(ctx, caller, recentEventsMax)
		title = "📜 Your games"
	}
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{Title: title, Color: 0x95A5A6}
	if len(events) == 0 {
		embed.Description = "Nothing recorded yet."
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, describeEvent(e))
	}
	if len(lines) > 0 {
		embed.Description = strings.Join(lines, "\n")
	}
	return discord.NewEphemeralResponse("", embed), nil
}

func (b *Bot) handleFund(ctx context.Context, caller entities.Identity, opts options) (*discord.Response, error) {
	if !b.config.IsDevelopment() {
		return nil, types.NewGameError(types.ErrNotAuthorized, "Funding is only available in development")
	}
	amount, err := positiveInt(opts, "amount")
	if err != nil {
		return nil, err
	}
	if err := b.wallets.Fund(ctx, caller, amount, "discord fund"); err != nil {
		return nil, err
	}
	balance, err := b.wallets.GetBalance(ctx, caller)
	if err != nil {
		return nil, err
	}
	return discord.NewEphemeralResponse(fmt.Sprintf("💵 Added %d. Balance: %d", amount, balance)), nil
}

func (b *Bot) gameRef(opts options) (entities.GameType, string, error) {
	gameType, err := b.games.Catalog().ParseGameType(stringOption(opts, "game"))
	if err != nil {
		return 0, "", err
	}
	code := strings.TrimSpace(stringOption(opts, "code"))
	if code == "" {
		return 0, "", types.NewGameError(types.ErrInvalidArgument, "A game code is required")
	}
	return gameType, code, nil
}

func gameEmbed(name string, rec *entities.GameRecord, escrow uint64) *discordgo.MessageEmbed {
	slots := make([]string, 0, rec.MaxPlayers)
	for i, id := range rec.JoinedPlayers() {
		slots = append(slots, fmt.Sprintf("**%s** %s", rec.Markers[i], mention(id)))
	}
	if open := int(rec.MaxPlayers) - int(rec.PlayersJoined); open > 0 {
		slots = append(slots, fmt.Sprintf("_%d open_", open))
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s `%s`", name, rec.Code),
		Color: 0x2ECC71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Wager", Value: fmt.Sprintf("%d", rec.Wager), Inline: true},
			{Name: "Escrow", Value: fmt.Sprintf("%d", escrow), Inline: true},
			{Name: "Players", Value: fmt.Sprintf("%d/%d (min %d)", rec.PlayersJoined, rec.MaxPlayers, rec.MinPlayers), Inline: true},
			{Name: "Slots", Value: strings.Join(slots, "\n")},
		},
	}
}

func describeEvent(e *entities.GameEvent) string {
	at := e.Timestamp.UTC().Format("2006-01-02 15:04")
	switch e.Type {
	case entities.EventGameCreated:
		return fmt.Sprintf("`%s` %s created `%s` staking %d", at, mention(e.Actor), e.Code, e.Amount)
	case entities.EventPlayerJoined:
		return fmt.Sprintf("`%s` %s joined `%s` staking %d", at, mention(e.Actor), e.Code, e.Amount)
	case entities.EventGameResolved:
		return fmt.Sprintf("`%s` %s won %d in `%s`", at, mention(e.Winner), e.Amount, e.Code)
	default:
		return fmt.Sprintf("`%s` %s `%s`", at, e.Type, e.Code)
	}
}

// callerIdentity is the member's user id in a guild, the user's id in a DM
func callerIdentity(i *discordgo.InteractionCreate) entities.Identity {
	if i.Member != nil && i.Member.User != nil {
		return entities.Identity(i.Member.User.ID)
	}
	if i.User != nil {
		return entities.Identity(i.User.ID)
	}
	return entities.NoIdentity
}

func mention(id entities.Identity) string {
	return "<@" + string(id) + ">"
}

func stringOption(opts options, name string) string {
	if o, ok := opts[name]; ok && o.Type == discordgo.ApplicationCommandOptionString {
		return o.StringValue()
	}
	return ""
}

func userOption(opts options, name string) entities.Identity {
	if o, ok := opts[name]; ok && o.Type == discordgo.ApplicationCommandOptionUser {
		return entities.Identity(o.UserValue(nil).ID)
	}
	return entities.NoIdentity
}

func positiveInt(opts options, name string) (uint64, error) {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("%s is required", name))
	}
	v := o.IntValue()
	if v <= 0 {
		return 0, types.NewGameError(types.ErrInvalidAmount, fmt.Sprintf("%s must be positive", name))
	}
	return uint64(v), nil
}
