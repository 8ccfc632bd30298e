package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Stimulus is everything the decision agent gets to see about one broadcast:
// the follower's own profile and social weight, the stimulus text, and
// similar moments recalled from the follower's memory index.
type Stimulus struct {
	Handle         string
	DisplayName    string
	Persona        string
	Tone           string
	Bio            string
	FollowersCount int64
	FollowingCount int64
	IntentLabel    string
	Context        string
	Snippets       []string
}

// RewriteRequest asks the agent to restate a draft in an actor's established
// voice before the text is posted.
type RewriteRequest struct {
	Handle   string
	Persona  string
	Tone     string
	Draft    string
	Verdict  string
	Snippets []string
}

// DecisionAgent is the narrow interface to the LLM collaborator
type DecisionAgent interface {
	Decide(ctx context.Context, stim Stimulus) (*Decision, error)
	Rewrite(ctx context.Context, req RewriteRequest) (string, error)
}

// OpenAIAgent implements DecisionAgent and memory.Embedder on top of the
// OpenAI chat and embedding APIs
type OpenAIAgent struct {
	client     *openai.Client
	model      string
	embedModel string
}

// NewOpenAIAgent creates a new OpenAIAgent. baseURL may be empty for the
// default API endpoint.
func NewOpenAIAgent(apiKey, baseURL, model, embedModel string) *OpenAIAgent {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIAgent{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		embedModel: embedModel,
	}
}

// Decide presents the stimulus and the fixed capability menu to the model
// and decodes its answer into at most one typed Action plus a verdict. The
// agent performs no retries; errors surface to the caller.
func (a *OpenAIAgent) Decide(ctx context.Context, stim Stimulus) (*Decision, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: decisionSystemPrompt(stim)},
			{Role: openai.ChatMessageRoleUser, Content: decisionUserPrompt(stim)},
		},
		Tools:      decisionTools(),
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	decision := &Decision{Verdict: strings.TrimSpace(msg.Content)}

	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		action, err := DecodeAction(tc.Function.Name, tc.Function.Arguments)
		if err != nil {
			return nil, err
		}
		decision.Action = action
		if decision.Verdict == "" {
			decision.Verdict = defaultVerdict(action)
		}
	}
	if decision.Verdict == "" {
		decision.Verdict = "no reaction"
	}
	return decision, nil
}

// Rewrite restates a draft in the actor's voice. A failed rewrite is fatal
// to the interaction that requested it; no fallback text is produced here.
func (a *OpenAIAgent) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rewriteSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: rewriteUserPrompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to rewrite text for %s: %w", req.Handle, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("rewrite returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("rewrite returned empty text")
	}
	return text, nil
}

// EmbedText implements memory.Embedder using the OpenAI embeddings API
func (a *OpenAIAgent) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(a.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

func decisionSystemPrompt(stim Stimulus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are @%s (%s), a social media persona.\n", stim.Handle, stim.DisplayName)
	fmt.Fprintf(&b, "Persona: %s\n", stim.Persona)
	fmt.Fprintf(&b, "Tone of voice: %s\n", stim.Tone)
	if stim.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", stim.Bio)
	}
	fmt.Fprintf(&b, "You have %d followers and follow %d accounts.\n", stim.FollowersCount, stim.FollowingCount)
	b.WriteString("An account you follow just did something. Decide how you react. " +
		"Call at most one tool, or call none if you only want to comment. " +
		"Always state your honest opinion of the post in one or two sentences.")
	return b.String()
}

func decisionUserPrompt(stim Stimulus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stimulus (%s):\n%s\n", stim.IntentLabel, stim.Context)
	if len(stim.Snippets) > 0 {
		b.WriteString("\nSimilar moments from your own history:\n")
		for _, snip := range stim.Snippets {
			fmt.Fprintf(&b, "- %s\n", snip)
		}
	}
	return b.String()
}

func rewriteSystemPrompt(req RewriteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are @%s. Persona: %s\nTone of voice: %s\n", req.Handle, req.Persona, req.Tone)
	b.WriteString("Rewrite the draft below so it sounds exactly like you. " +
		"Keep it under 280 characters. Reply with the rewritten text only.")
	return b.String()
}

func rewriteUserPrompt(req RewriteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft: %s\n", req.Draft)
	if req.Verdict != "" {
		fmt.Fprintf(&b, "Your take on the original post: %s\n", req.Verdict)
	}
	if len(req.Snippets) > 0 {
		b.WriteString("Things you said before, for voice reference:\n")
		for _, snip := range req.Snippets {
			fmt.Fprintf(&b, "- %s\n", snip)
		}
	}
	return b.String()
}

func defaultVerdict(action *Action) string {
	switch action.Type {
	case ActionIgnore:
		if action.Ignore.Reason != "" {
			return action.Ignore.Reason
		}
		return "chose to ignore this"
	case ActionMute:
		if action.Mute.Reason != "" {
			return action.Mute.Reason
		}
		return "muted this conversation"
	default:
		return "decided to " + string(action.Type)
	}
}
