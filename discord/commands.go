package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/utils"
)

const (
	CommandNameCompare = "compare"

	commandOptionAudio = "audio"
)

func (b *DiscordBot) registerCommands(ctx context.Context) error {
	defaultPerms := int64(discordgo.PermissionViewChannel)
	createdCommands, err := b.discord.ApplicationCommandBulkOverwrite(b.self.ID, "", []*discordgo.ApplicationCommand{
		{
			Type:                     discordgo.ChatApplicationCommand,
			Name:                     CommandNameCompare,
			DefaultMemberPermissions: &defaultPerms,
			Description:              "Transcribe audio with both models and compare the results.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        commandOptionAudio,
					Description: "Japanese speech to transcribe.",
					Required:    true,
				},
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}

	b.commandsMu.Lock()
	b.commands = make(map[string]*discordgo.ApplicationCommand)
	for _, command := range createdCommands {
		b.commands[command.Name] = command
	}
	b.commandsMu.Unlock()

	return nil
}

func (b *DiscordBot) handleCommandInteraction(ctx context.Context, e *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	log := utils.GetLogFromContext(ctx, b.log)

	var commandErr error
	switch data.Name {
	case CommandNameCompare:
		commandErr = b.handleCommandCompare(ctx, e, data)
	}

	if commandErr != nil {
		var discordErr DiscordExecutionError
		errorMessage := "Unknown error occurred."
		if errors.As(commandErr, &discordErr) && discordErr.Message != "" {
			errorMessage = discordErr.Message
		}

		if !discordErr.UserError {
			log.Error("failed to respond to command", zap.Error(commandErr))
		}

		output, err := b.executeMessageTemplate(ctx, "command_error", MessageContext{
			CommandError: &MessageContextCommandError{
				Message: errorMessage,
			},
		})
		if err != nil {
			log.Error("failed to render error message", zap.Error(err))
			return nil
		}

		var deferred deferredError
		err = sendCommandError(ctx, b.discord, e.Interaction, output, errors.As(commandErr, &deferred))
		if err != nil {
			log.Error("failed to send response", zap.Error(err))
		}
	}

	return nil
}

// deferredError marks a command error raised after the interaction response
// was deferred. Discord rejects a second response, so it is shown by editing
// the deferred one.
type deferredError struct {
	err error
}

func (e deferredError) Error() string { return e.err.Error() }
func (e deferredError) Unwrap() error { return e.err }

type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func sendCommandError(ctx context.Context, responder interactionResponder, interaction *discordgo.Interaction, output *MessageOutput, deferred bool) error {
	if deferred {
		_, err := responder.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
			Content:         &output.Content,
			Embeds:          &output.Embeds,
			Components:      &output.Components,
			AllowedMentions: DefaultAllowedMentions,
		}, discordgo.WithContext(ctx))
		return err
	}

	return responder.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:           discordgo.MessageFlagsEphemeral,
			Content:         output.Content,
			Components:      output.Components,
			Embeds:          output.Embeds,
			AllowedMentions: DefaultAllowedMentions,
		},
	}, discordgo.WithContext(ctx))
}

// commandAttachment resolves the attachment passed to an option by name.
func commandAttachment(data discordgo.ApplicationCommandInteractionData, name string) (*discordgo.MessageAttachment, error) {
	for _, option := range data.Options {
		if option.Name != name || option.Type != discordgo.ApplicationCommandOptionAttachment {
			continue
		}

		id, ok := option.Value.(string)
		if !ok || data.Resolved == nil {
			break
		}
		if attachment, ok := data.Resolved.Attachments[id]; ok {
			return attachment, nil
		}
	}

	return nil, DiscordExecutionError{
		Message:   "Attach an audio file to compare.",
		UserError: true,
	}
}

func (b *DiscordBot) handleCommandCompare(ctx context.Context, e *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	attachment, err := commandAttachment(data, commandOptionAudio)
	if err != nil {
		return err
	}

	err = checkAttachment(attachment, b.maxInputFileSize, b.comparer.MaxDuration())
	if err != nil {
		return err
	}

	err = b.discord.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return fmt.Errorf("deferring response: %w", err)
	}

	target := interactionReply{session: b.discord, interaction: e.Interaction}

	progress, err := b.renderProgress(ctx)
	if err != nil {
		return deferredError{err}
	}
	if _, err := target.edit(ctx, progress); err != nil {
		return deferredError{fmt.Errorf("showing progress: %w", err)}
	}

	go b.compareInBackground(ctx, attachment, target)

	return nil
}
