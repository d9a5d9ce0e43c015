package post

import (
	"github.com/haleyhq/pulseboard/internal/entity"
	postDto "github.com/haleyhq/pulseboard/internal/modules/post/dto"
	"github.com/haleyhq/pulseboard/pkg/dto"
)

func buildPostDetail(post *entity.Post) postDto.PostDetail {
	detail := postDto.PostDetail{
		ID:       post.ID.String(),
		Type:     post.Type,
		Status:   post.Status,
		Body:     post.Body,
		LinkURL:  post.LinkURL,
		IsPinned: post.IsPinned,
		Author: dto.AuthorStub{
			ID:        post.AuthorID.String(),
			Name:      post.Author.Name,
			Title:     post.Author.Title,
			AvatarURL: post.Author.AvatarURL,
		},
		PollQuestion:   post.PollQuestion,
		PollOptions:    post.PollOptions,
		PollClosed:     post.PollClosed,
		CommentsCount:  post.CommentsCount,
		ViewsCount:     post.ViewsCount,
		ReactionCounts: post.ReactionCounts,
		CreatedAt:      post.CreatedAt,
		PublishedAt:    post.PublishedAt,
	}

	if post.GroupID != nil && post.Group != nil {
		detail.Group = &dto.GroupStub{
			ID:   post.Group.ID.String(),
			Name: post.Group.Name,
		}
	}

	for _, a := range post.Attachments {
		detail.Attachments = append(detail.Attachments, postDto.AttachmentView{
			ID:       a.ID,
			FileURL:  a.FileURL,
			ThumbURL: a.ThumbURL,
			FileType: a.FileType,
		})
	}

	return detail
}
