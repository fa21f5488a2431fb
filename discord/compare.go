package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/media"
	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/utils"
)

const comparisonTimeout = time.Minute * 2

// replyTarget is the message that shows the progress and then the result,
// either a bot reply to a voice message or a deferred interaction response.
type replyTarget interface {
	edit(ctx context.Context, output *MessageOutput) (*discordgo.Message, error)
}

type channelReply struct {
	session *discordgo.Session
	message *discordgo.Message
}

func (r channelReply) edit(ctx context.Context, output *MessageOutput) (*discordgo.Message, error) {
	return r.session.ChannelMessageEditComplex(
		&discordgo.MessageEdit{
			Channel: r.message.ChannelID,
			ID:      r.message.ID,

			Content:    &output.Content,
			Embeds:     &output.Embeds,
			Components: &output.Components,
		},
		discordgo.WithContext(ctx),
	)
}

type interactionReply struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r interactionReply) edit(ctx context.Context, output *MessageOutput) (*discordgo.Message, error) {
	return r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Content:    &output.Content,
		Embeds:     &output.Embeds,
		Components: &output.Components,
	}, discordgo.WithContext(ctx))
}

// checkAttachment rejects attachments that can't be compared before anything
// is downloaded.
func checkAttachment(attachment *discordgo.MessageAttachment, maxSize int, maxDuration float64) error {
	if !strings.HasPrefix(attachment.ContentType, "audio/") && !strings.HasPrefix(attachment.ContentType, "video/") {
		return DiscordExecutionError{
			Message:   "That attachment isn't audio.",
			UserError: true,
		}
	}
	if attachment.Size > maxSize {
		return DiscordExecutionError{
			Message:   fmt.Sprintf("Audio files are limited to %d MB.", maxSize/(1024*1024)),
			Err:       utils.ErrIOLimitReached,
			UserError: true,
		}
	}
	if attachment.DurationSecs > maxDuration {
		return DiscordExecutionError{
			Message:   fmt.Sprintf("Audio is limited to %.0f seconds.", maxDuration),
			Err:       pipeline.ErrAudioTooLong,
			UserError: true,
		}
	}
	return nil
}

// userErrorMessage picks the message shown in place of the result.
func userErrorMessage(err error) string {
	var discordErr DiscordExecutionError
	switch {
	case errors.As(err, &discordErr) && discordErr.Message != "":
		return discordErr.Message
	case errors.Is(err, utils.ErrIOLimitReached):
		return "The audio file is too big."
	case errors.Is(err, pipeline.ErrAudioTooLong):
		return "The audio is too long."
	case errors.Is(err, media.ErrFFprobeDurationInvalid):
		return "Couldn't read any audio from that file."
	case errors.Is(err, pipeline.ErrAllModelsFailed):
		return "Both models failed to transcribe the audio."
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout exceeded while comparing transcriptions."
	}
	return "Unknown error occurred."
}

func (b *DiscordBot) handleVoiceMessage(ctx context.Context, e *discordgo.MessageCreate) error {
	log := utils.GetLogFromContext(ctx, b.log)

	if (e.Flags&discordgo.MessageFlagsIsVoiceMessage) == 0 || len(e.Attachments) != 1 {
		return nil // not a voice message
	}

	attachment := e.Attachments[0]

	err := checkAttachment(attachment, b.maxInputFileSize, b.comparer.MaxDuration())
	if err != nil {
		log.Info("ignoring voice message", zap.String("reason", userErrorMessage(err)))
		return nil
	}

	progress, err := b.renderProgress(ctx)
	if err != nil {
		return err
	}

	replyMessage, err := b.discord.ChannelMessageSendComplex(e.ChannelID, &discordgo.MessageSend{
		Content:         progress.Content,
		Embeds:          progress.Embeds,
		Components:      progress.Components,
		Reference:       e.Reference(),
		AllowedMentions: DefaultAllowedMentions,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sending initial reply message: %w", err)
	}

	go b.compareInBackground(ctx, attachment, channelReply{session: b.discord, message: replyMessage})

	return nil
}

func (b *DiscordBot) renderProgress(ctx context.Context) (*MessageOutput, error) {
	labelA, labelB := b.comparer.ModelLabels()
	output, err := b.executeMessageTemplate(ctx, "comparison_progress", MessageContext{
		ComparisonProgress: &MessageContextComparisonProgress{
			ModelLabels: []string{labelA, labelB},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rendering progress: %w", err)
	}
	return output, nil
}

// compareInBackground runs a comparison detached from the gateway event and
// shows the result or the error on target.
func (b *DiscordBot) compareInBackground(parent context.Context, attachment *discordgo.MessageAttachment, target replyTarget) {
	log := utils.GetLogFromContext(parent, b.log)
	defer utils.PanicRecovery(log)

	ctx := utils.LogContext(context.Background(), utils.GetLogContextFields(parent)...)

	comparisonCtx, cancel := context.WithTimeout(ctx, comparisonTimeout)
	defer cancel()

	comparisonErr := b.compareAttachment(comparisonCtx, attachment, target)
	if comparisonErr == nil {
		return
	}

	var discordErr DiscordExecutionError
	if !errors.As(comparisonErr, &discordErr) || !discordErr.UserError {
		log.Error("failed to compare transcriptions", zap.Error(comparisonErr))
	}

	renderedError, err := b.executeMessageTemplate(ctx, "comparison_error", MessageContext{
		ComparisonError: &MessageContextComparisonError{
			Message: userErrorMessage(comparisonErr),
		},
	})
	if err != nil {
		log.Error("failed to render error message", zap.Error(err))
		return
	}

	if _, err := target.edit(ctx, renderedError); err != nil {
		log.Error("failed to update reply message with comparison error", zap.Error(err))
	}
}

func (b *DiscordBot) compareAttachment(ctx context.Context, attachment *discordgo.MessageAttachment, target replyTarget) error {
	tempfile, err := b.downloadAttachmentToTemp(ctx, attachment.URL, b.maxInputFileSize)
	if errors.Is(err, utils.ErrIOLimitReached) {
		return fmt.Errorf("attachment too big: %w", err)
	} else if err != nil {
		return DiscordExecutionError{
			Message: "Error downloading file.",
			Err:     fmt.Errorf("downloading attachment: %w", err),
		}
	}
	defer os.Remove(tempfile)

	report, err := b.comparer.Run(ctx, tempfile, pipeline.WithSource(pipeline.SourceDiscord))
	if err != nil {
		return fmt.Errorf("running comparison: %w", err)
	}

	return b.showReport(ctx, report, target)
}

func (b *DiscordBot) renderReport(ctx context.Context, report *pipeline.Report) (*MessageOutput, error) {
	output, err := b.executeMessageTemplate(ctx, "comparison_result", MessageContext{
		ComparisonResult: &MessageContextComparisonResult{
			Report:          report,
			SwapComponentID: ComponentIDString(ComponentSourceResult, ComponentActionSwapReference),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rendering result: %w", err)
	}
	return output, nil
}

func (b *DiscordBot) showReport(ctx context.Context, report *pipeline.Report, target replyTarget) error {
	output, err := b.renderReport(ctx, report)
	if err != nil {
		return err
	}

	message, err := target.edit(ctx, output)
	if err != nil {
		return fmt.Errorf("editing message: %w", err)
	}

	b.reports.Add(message.ID, report)
	return nil
}

// downloadAttachmentToTemp downloads url into a temp file with a size limit, returning the path.
//
// It is the caller's responsibility to clean up the temp file.
func (b *DiscordBot) downloadAttachmentToTemp(ctx context.Context, url string, maxSize int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad http status: %s", resp.Status)
	}

	return utils.CopyToTemp(resp.Body, int64(maxSize))
}
