package mcp

// ToolDefinitions returns the tools the adapter exposes to the agent. Each
// maps onto one interaction-store HTTP endpoint.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "ask_user",
			Description: "Ask the human a question and record it for review. Returns the interaction id; the answer arrives asynchronously through the review panel.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"question":  {Type: "string", Description: "The question to put to the human."},
					"title":     {Type: "string", Description: "Short label shown in the review panel."},
					"agentName": {Type: "string", Description: "Name of the agent asking."},
					"options": {
						Type:        "array",
						Description: "Selectable answer labels offered to the human.",
						Items:       &Items{Type: "string"},
					},
				},
				Required: []string{"question"},
			},
		},
		{
			Name:        "plan_review",
			Description: "Submit a markdown plan for human review. The review starts pending and is resolved from the review panel.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"plan":  {Type: "string", Description: "The plan, as markdown."},
					"title": {Type: "string", Description: "Short label shown in the review panel."},
					"mode": {
						Type:        "string",
						Description: "Presentation mode for the review.",
						Enum:        []string{"review", "summary", "progress", "walkthrough", "display"},
						Default:     "review",
					},
				},
				Required: []string{"plan"},
			},
		},
		{
			Name:        "get_interaction",
			Description: "Fetch one interaction record by id, including any response or resolution.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"id": {Type: "string", Description: "Interaction id returned by ask_user or plan_review."},
				},
				Required: []string{"id"},
			},
		},
		{
			Name:        "pending_reviews",
			Description: "List plan reviews still awaiting human resolution, newest first.",
			InputSchema: InputSchema{
				Type: "object",
			},
		},
	}
}
