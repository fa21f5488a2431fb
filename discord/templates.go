package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/utils"
)

type MessageOutput struct {
	Content    string                       `json:"content,omitempty"`
	Components []discordgo.MessageComponent `json:"components,omitempty"`
	Embeds     []*discordgo.MessageEmbed    `json:"embeds,omitempty"`
}

type messageOutputRaw struct {
	Content    string                    `json:"content,omitempty"`
	Components []json.RawMessage         `json:"components,omitempty"`
	Embeds     []*discordgo.MessageEmbed `json:"embeds,omitempty"`
}

type MessageContextInteractionError struct {
	Message string `json:"message"`
}
type MessageContextCommandError struct {
	Message string `json:"message"`
}

type MessageContextComparisonError struct {
	Message string `json:"message"`
}
type MessageContextComparisonProgress struct {
	ModelLabels []string `json:"model_labels"`
}
type MessageContextComparisonResult struct {
	Report          *pipeline.Report `json:"report"`
	SwapComponentID string           `json:"swap_component_id"`
}

type MessageContext struct {
	InteractionError *MessageContextInteractionError `json:"interaction_error,omitempty"`
	CommandError     *MessageContextCommandError     `json:"command_error,omitempty"`

	ComparisonError    *MessageContextComparisonError    `json:"comparison_error,omitempty"`
	ComparisonProgress *MessageContextComparisonProgress `json:"comparison_progress,omitempty"`
	ComparisonResult   *MessageContextComparisonResult   `json:"comparison_result,omitempty"`

	Timestamp          string                                   `json:"timestamp"`
	RegisteredCommands map[string]*discordgo.ApplicationCommand `json:"registered_commands"`
}

func (b *DiscordBot) executeMessageTemplate(ctx context.Context, messageName string, data MessageContext) (*MessageOutput, error) {
	log := utils.GetLogFromContext(ctx, b.log)

	data.Timestamp = time.Now().UTC().Format(time.RFC3339)
	b.commandsMu.RLock()
	data.RegisteredCommands = b.commands
	defer b.commandsMu.RUnlock()

	jsonOut, err := b.messages.ExecuteMessage(messageName, data)
	if err != nil {
		return nil, err
	}

	output, err := parseMessageOutput(jsonOut)
	if err != nil {
		return nil, err
	}

	log.With(zap.Any("output", output)).Debug("got message template output")

	return output, nil
}

func parseMessageOutput(jsonOut string) (*MessageOutput, error) {
	var outputRaw messageOutputRaw
	err := json.Unmarshal([]byte(jsonOut), &outputRaw)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling output: %w", err)
	}

	output := &MessageOutput{
		Content: outputRaw.Content,
		Embeds:  outputRaw.Embeds,
	}

	for _, c := range outputRaw.Components {
		messageComponent, err := discordgo.MessageComponentFromJSON(c)
		if err != nil {
			return nil, fmt.Errorf("unmarshaling component: %w", err)
		}
		output.Components = append(output.Components, messageComponent)
	}

	return output, nil
}
