package search

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"

	"github.com/haleyhq/pulseboard/internal/entity"
)

const postsIndex = "posts"

// maxCandidates bounds how many ranked IDs one text search pulls back before
// the SQL layer applies the remaining filters and pagination.
const maxCandidates = 500

// SearchService fronts the Meilisearch posts index. Indexing is best-effort
// (callers log and move on); querying errors are surfaced so the feed engine
// can fall back to its database scan.
type SearchService interface {
	IndexPost(post *entity.Post) error
	DeletePost(id string) error
	// SearchPostIDs returns ranked post IDs for a company-scoped text query,
	// optionally pinned to one group.
	SearchPostIDs(companyID uuid.UUID, groupID *uuid.UUID, query string) ([]uuid.UUID, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	filterableAttrs := []string{"company_id", "group_id"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(postsIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update posts filterable attributes: %v", err)
	}
}

func (s *searchService) IndexPost(post *entity.Post) error {
	if post.Status != entity.PostStatusPublished || post.DeletedAt != nil {
		// Only published, live posts belong in the index.
		return s.DeletePost(post.ID.String())
	}

	doc := map[string]any{
		"id":         post.ID.String(),
		"company_id": post.CompanyID.String(),
		"type":       post.Type,
		"body":       s.stripMarkup(post.Body),
		"created_at": post.CreatedAt.Unix(),
	}
	if post.GroupID != nil {
		doc["group_id"] = post.GroupID.String()
	}

	_, err := s.client.Index(postsIndex).AddDocuments([]map[string]any{doc}, nil)
	return err
}

func (s *searchService) DeletePost(id string) error {
	_, err := s.client.Index(postsIndex).DeleteDocument(id)
	return err
}

func (s *searchService) SearchPostIDs(companyID uuid.UUID, groupID *uuid.UUID, query string) ([]uuid.UUID, error) {
	filter := fmt.Sprintf("company_id = %q", companyID.String())
	if groupID != nil {
		filter += fmt.Sprintf(" AND group_id = %q", groupID.String())
	}

	res, err := s.client.Index(postsIndex).Search(query, &meilisearch.SearchRequest{
		Filter: filter,
		Limit:  maxCandidates,
	})
	if err != nil {
		return nil, err
	}

	return decodeHitIDs(res.Hits), nil
}

// decodeHitIDs pulls post IDs out of raw search hits, preserving the engine's
// ranking order. Hits without a parseable id are skipped.
func decodeHitIDs(hits meilisearch.Hits) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		raw, ok := hit["id"]
		if !ok {
			continue
		}
		var idStr string
		if err := json.Unmarshal(raw, &idStr); err != nil {
			continue
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *searchService) stripMarkup(body string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(body)))
}
