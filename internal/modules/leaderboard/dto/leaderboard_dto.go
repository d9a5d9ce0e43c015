package leaderboard

// Entry is one leaderboard row.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Points int64  `json:"points"`
}

type Leaderboard struct {
	Period  string  `json:"period"`
	Entries []Entry `json:"entries"`
}
