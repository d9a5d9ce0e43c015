package dto

// PaginationMeta is the shared envelope for paginated listings.
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

// AuthorStub is the denormalized author info attached to feed items.
type AuthorStub struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Title     string  `json:"title,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// GroupStub is the minimal group reference attached to group posts.
type GroupStub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
