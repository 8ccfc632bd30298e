package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ActionType identifies one capability from the fixed decision menu.
type ActionType string

const (
	ActionLike    ActionType = "like"
	ActionReply   ActionType = "reply"
	ActionRetweet ActionType = "retweet"
	ActionQuote   ActionType = "quote"
	ActionIgnore  ActionType = "ignore"
	ActionMute    ActionType = "mute"
)

// LikeParams are the parameters for a like action
type LikeParams struct {
	DelayMillis int `json:"delay_ms" validate:"gte=0,lte=3600000"`
}

// RetweetParams are the parameters for a repost action
type RetweetParams struct {
	DelayMillis int `json:"delay_ms" validate:"gte=0,lte=3600000"`
}

// ReplyParams are the parameters for a reply action
type ReplyParams struct {
	Text        string `json:"text" validate:"required,max=280"`
	DelayMillis int    `json:"delay_ms" validate:"gte=0,lte=3600000"`
}

// QuoteParams are the parameters for a quote action
type QuoteParams struct {
	Text        string `json:"text" validate:"required,max=280"`
	DelayMillis int    `json:"delay_ms" validate:"gte=0,lte=3600000"`
}

// IgnoreParams are the parameters for explicitly doing nothing
type IgnoreParams struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// MuteParams are the parameters for suppressing a stimulus
type MuteParams struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// Action is a closed tagged union over the decision menu. Exactly one of the
// parameter fields is non-nil, matching Type.
type Action struct {
	Type    ActionType
	Like    *LikeParams
	Reply   *ReplyParams
	Retweet *RetweetParams
	Quote   *QuoteParams
	Ignore  *IgnoreParams
	Mute    *MuteParams
}

// Delay returns the agent-requested scheduling delay for the action
func (a *Action) Delay() time.Duration {
	var ms int
	switch a.Type {
	case ActionLike:
		ms = a.Like.DelayMillis
	case ActionReply:
		ms = a.Reply.DelayMillis
	case ActionRetweet:
		ms = a.Retweet.DelayMillis
	case ActionQuote:
		ms = a.Quote.DelayMillis
	}
	return time.Duration(ms) * time.Millisecond
}

// Text returns the draft text for content-producing actions, empty otherwise
func (a *Action) Text() string {
	switch a.Type {
	case ActionReply:
		return a.Reply.Text
	case ActionQuote:
		return a.Quote.Text
	}
	return ""
}

// Decision is the agent's answer to one stimulus: at most one action plus a
// free-text verdict that is persisted as a sentiment either way.
type Decision struct {
	Action  *Action
	Verdict string
}

var validate = validator.New()

// DecodeAction decodes a named tool call with JSON arguments into a typed
// Action, validating its parameters. Unknown tool names are an error: the
// menu is closed.
func DecodeAction(name string, argsJSON string) (*Action, error) {
	if argsJSON == "" {
		argsJSON = "{}"
	}
	decode := func(v interface{}) error {
		if err := json.Unmarshal([]byte(argsJSON), v); err != nil {
			return fmt.Errorf("failed to decode %s arguments: %w", name, err)
		}
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("invalid %s arguments: %w", name, err)
		}
		return nil
	}

	action := &Action{Type: ActionType(name)}
	var err error
	switch action.Type {
	case ActionLike:
		action.Like = &LikeParams{}
		err = decode(action.Like)
	case ActionReply:
		action.Reply = &ReplyParams{}
		err = decode(action.Reply)
	case ActionRetweet:
		action.Retweet = &RetweetParams{}
		err = decode(action.Retweet)
	case ActionQuote:
		action.Quote = &QuoteParams{}
		err = decode(action.Quote)
	case ActionIgnore:
		action.Ignore = &IgnoreParams{}
		err = decode(action.Ignore)
	case ActionMute:
		action.Mute = &MuteParams{}
		err = decode(action.Mute)
	default:
		return nil, fmt.Errorf("unknown action %q", name)
	}
	if err != nil {
		return nil, err
	}
	return action, nil
}
