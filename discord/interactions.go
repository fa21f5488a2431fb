package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/utils"
)

func (b *DiscordBot) handleComponentInteraction(ctx context.Context, e *discordgo.InteractionCreate, data discordgo.MessageComponentInteractionData) error {
	log := utils.GetLogFromContext(ctx, b.log)

	if data.ComponentType != discordgo.ButtonComponent {
		return nil
	}

	componentID, err := ParseComponentID(data.CustomID)
	if err != nil {
		return nil
	}

	var interactionErr error

	switch {
	case componentID.Source == ComponentSourceResult && componentID.Action == ComponentActionSwapReference:
		interactionErr = b.handleSwapReferenceInteraction(ctx, e)
	}

	if interactionErr != nil {
		var discordErr DiscordExecutionError
		errorMessage := "Unknown error occurred."
		if errors.As(interactionErr, &discordErr) && discordErr.Message != "" {
			errorMessage = discordErr.Message
		}

		if !discordErr.UserError {
			log.Error("failed to respond to interaction", zap.Error(interactionErr))
		}

		output, err := b.executeMessageTemplate(ctx, "interaction_error", MessageContext{
			InteractionError: &MessageContextInteractionError{
				Message: errorMessage,
			},
		})
		if err != nil {
			log.Error("failed to render error message", zap.Error(err))
			return nil
		}

		err = b.discord.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:           discordgo.MessageFlagsEphemeral,
				Content:         output.Content,
				Components:      output.Components,
				Embeds:          output.Embeds,
				AllowedMentions: DefaultAllowedMentions,
			},
		})
		if err != nil {
			log.Error("failed to send response", zap.Error(err))
		}
	}

	return nil
}

// swapReport recomputes the cached report for messageID against the other
// reference and caches the result in its place.
func (b *DiscordBot) swapReport(messageID string) (*pipeline.Report, error) {
	report, ok := b.reports.Get(messageID)
	if !ok {
		return nil, DiscordExecutionError{
			Message:   "This comparison is too old to change, run it again.",
			UserError: true,
		}
	}

	swapped := pipeline.Recompare(report, report.Comparison.Reference.Other())
	b.reports.Add(messageID, swapped)
	return swapped, nil
}

func (b *DiscordBot) handleSwapReferenceInteraction(ctx context.Context, e *discordgo.InteractionCreate) error {
	if e.Message == nil {
		return fmt.Errorf("component interaction without a message")
	}

	report, err := b.swapReport(e.Message.ID)
	if err != nil {
		return err
	}

	output, err := b.renderReport(ctx, report)
	if err != nil {
		return err
	}

	err = b.discord.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:         output.Content,
			Components:      output.Components,
			Embeds:          output.Embeds,
			AllowedMentions: DefaultAllowedMentions,
		},
	})
	if err != nil {
		return fmt.Errorf("sending response: %w", err)
	}

	return nil
}
