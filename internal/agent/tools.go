package agent

import "github.com/sashabaranov/go-openai"

// delaySchema is shared by every action that accepts a scheduling delay.
func delaySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Milliseconds to wait before the action happens, simulating human latency. 0 to 3600000.",
	}
}

func textSchema(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Draft text of the " + what + ", at most 280 characters. It will be rewritten in your voice before posting.",
	}
}

// decisionTools returns the fixed capability menu offered to the decision
// agent. One tool per interaction handler; the menu never changes at runtime.
func decisionTools() []openai.Tool {
	defs := []openai.FunctionDefinition{
		{
			Name:        string(ActionLike),
			Description: "Favorite the post you were shown.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"delay_ms": delaySchema()},
				"required":   []string{"delay_ms"},
			},
		},
		{
			Name:        string(ActionReply),
			Description: "Reply to the post with your own text.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":     textSchema("reply"),
					"delay_ms": delaySchema(),
				},
				"required": []string{"text", "delay_ms"},
			},
		},
		{
			Name:        string(ActionRetweet),
			Description: "Repost the post to your own followers without commentary.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"delay_ms": delaySchema()},
				"required":   []string{"delay_ms"},
			},
		},
		{
			Name:        string(ActionQuote),
			Description: "Quote the post, adding your own commentary on top.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":     textSchema("quote"),
					"delay_ms": delaySchema(),
				},
				"required": []string{"text", "delay_ms"},
			},
		},
		{
			Name:        string(ActionIgnore),
			Description: "Do nothing about this post.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reason": map[string]interface{}{
						"type":        "string",
						"description": "Short reason for ignoring the post.",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        string(ActionMute),
			Description: "Suppress this conversation so it stops resurfacing in your memory.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reason": map[string]interface{}{
						"type":        "string",
						"description": "Short reason for muting the conversation.",
					},
				},
				"required": []string{},
			},
		},
	}

	tools := make([]openai.Tool, 0, len(defs))
	for i := range defs {
		tools = append(tools, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: &defs[i],
		})
	}
	return tools
}
