package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/utils"
)

func (b *DiscordBot) handleMessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	ctx, log := utils.LogContextWith(context.Background(), b.log, zap.String("initiating_message", fmt.Sprintf("/%s/%s/%s", e.GuildID, e.ChannelID, e.ID)))

	defer utils.PanicRecovery(log)

	if !b.isGuildInScope(e.GuildID) {
		return // not a supported guild
	}

	if e.Author == nil || e.Author.ID == "" || e.Author.Bot {
		return
	}

	err := b.handleVoiceMessage(ctx, e)
	if err != nil {
		log.Error("error handling voice message", zap.Error(err))
	}
}

func (b *DiscordBot) handleInteractionCreate(s *discordgo.Session, e *discordgo.InteractionCreate) {
	ctx, log := utils.LogContextWith(context.Background(), b.log, zap.String("initiating_interaction", fmt.Sprintf("/%s/%s/%s", e.GuildID, e.ChannelID, e.ID)))

	defer utils.PanicRecovery(log)

	switch e.Type {
	case discordgo.InteractionApplicationCommand:
		data := e.ApplicationCommandData()
		err := b.handleCommandInteraction(ctx, e, data)
		if err != nil {
			log.Error("error handling command interaction", zap.Error(err))
		}
	case discordgo.InteractionMessageComponent:
		data := e.MessageComponentData()
		err := b.handleComponentInteraction(ctx, e, data)
		if err != nil {
			log.Error("error handling component interaction", zap.Error(err))
		}
	}
}
