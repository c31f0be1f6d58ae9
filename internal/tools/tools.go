package tools

import (
	"nebula/internal/adapter"
)

// Tool names
const (
	ToolSearch        = "search"
	ToolKickUser      = "kick_user"
	ToolBanUser       = "ban_user"
	ToolCreateChannel = "create_channel"
	ToolUserActivity  = "user_activity_check"
)

// Audit action kinds
const (
	ActionKick          = "kick"
	ActionBan           = "ban"
	ActionCreateChannel = "create_channel"
	ActionActivityCheck = "user_activity_check"
)

// AvailableTools returns the tool declarations handed to the model, in a
// fixed order. The search tool is visible to everyone; moderation and
// activity tools only to privileged callers. This list is advisory
// metadata for the model, not an authorization boundary: every handler
// re-checks privilege before acting.
func AvailableTools(isAdmin bool) []adapter.Tool {
	tools := []adapter.Tool{
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolSearch,
				Description: "Search the web using Google Custom Search API. Only use when user explicitly asks to search for something.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "The search query",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}

	if !isAdmin {
		return tools
	}

	tools = append(tools,
		adapter.Tool{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolKickUser,
				Description: "Kick a member from the server",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"user_mention": map[string]interface{}{
							"type":        "string",
							"description": "The user mention (e.g., @username or user ID)",
						},
						"reason": map[string]interface{}{
							"type":        "string",
							"description": "Reason for kicking the user",
						},
					},
					"required": []string{"user_mention", "reason"},
				},
			},
		},
		adapter.Tool{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolBanUser,
				Description: "Ban a member from the server",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"user_mention": map[string]interface{}{
							"type":        "string",
							"description": "The user mention (e.g., @username or user ID)",
						},
						"reason": map[string]interface{}{
							"type":        "string",
							"description": "Reason for banning the user",
						},
					},
					"required": []string{"user_mention", "reason"},
				},
			},
		},
		adapter.Tool{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolCreateChannel,
				Description: "Create a new channel in the server",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"channel_name": map[string]interface{}{
							"type":        "string",
							"description": "Name of the channel to create",
						},
						"category_name": map[string]interface{}{
							"type":        "string",
							"description": "Name of the category to create channel in (optional)",
						},
						"channel_type": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"text", "voice"},
							"description": "Type of channel: text or voice",
						},
					},
					"required": []string{"channel_name", "channel_type"},
				},
			},
		},
		adapter.Tool{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolUserActivity,
				Description: "Check activity history of a specific user",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"user_mention": map[string]interface{}{
							"type":        "string",
							"description": "The user mention (e.g., @username or user ID)",
						},
					},
					"required": []string{"user_mention"},
				},
			},
		},
	)

	return tools
}
