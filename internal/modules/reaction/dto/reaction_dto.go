package reaction

// ToggleReactionRequest is the body of POST /posts/:id/reactions.
type ToggleReactionRequest struct {
	Type string `json:"type" binding:"required,max=30"`
}

// ToggleReactionResponse reports the caller's reaction state after the toggle.
// Type is empty when the toggle removed the reaction.
type ToggleReactionResponse struct {
	PostID string         `json:"post_id"`
	Type   string         `json:"type,omitempty"`
	Counts map[string]int `json:"counts"`
}
