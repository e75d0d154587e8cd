package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pable/cricroster/internal/model"
)

const systemPrompt = `You are a cricket statistics expert. You are asked for the complete official
international career statistics of one player.

Rules:
- International stats ONLY (Tests / ODIs / T20Is). Not IPL, not domestic.
- "centuries" is the total of international hundreds across all formats.
- "playingRole" is the player's usual role, e.g. "Top order batter",
  "Wicketkeeper batter", "Right-arm fast", "Slow left-arm orthodox", "Batting allrounder".
- "confident" is true only if you are sure who this player is.
- If you do not recognise the player, return all zeros and confident=false.
- Return ONLY the raw JSON object. No explanation, no markdown.`

// Proposer asks an external source for a player's career figures.
type Proposer interface {
	Propose(ctx context.Context, p model.RosterPlayer) (*Proposal, error)
}

// AnthropicProposer asks a Claude model for career figures.
type AnthropicProposer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProposer returns a proposer using apiKey and modelID.
func NewAnthropicProposer(apiKey, modelID string) (*AnthropicProposer, error) {
	if apiKey == "" {
		return nil, errors.New("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}
	return &AnthropicProposer{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     modelID,
		maxTokens: 400,
	}, nil
}

// BuildPrompt renders the per-player question.
func BuildPrompt(p model.RosterPlayer) string {
	role := string(p.PrimaryRole)
	if role == "" {
		role = "Cricketer"
	}
	return fmt.Sprintf(`Player : %s
Country: %s
Role   : %s

Return a JSON object with exactly these fields (use 0 for formats never played):
{
  "testRuns": <int>, "testWickets": <int>, "testMatches": <int>,
  "odiRuns": <int>, "odiWickets": <int>, "odiMatches": <int>,
  "t20iRuns": <int>, "t20iWickets": <int>, "t20iMatches": <int>,
  "centuries": <int>,
  "playingRole": <string>,
  "confident": <true or false>
}`, p.Name, p.Country, role)
}

// Propose sends one request and parses the first text block of the reply.
func (a *AnthropicProposer) Propose(ctx context.Context, p model.RosterPlayer) (*Proposal, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(p))),
		},
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return nil, fmt.Errorf("API authentication failed, check your API key: %w", err)
		}
		return nil, fmt.Errorf("messages request: %w", err)
	}
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return ParseProposal(text.String())
}
