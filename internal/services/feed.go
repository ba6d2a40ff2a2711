package services

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/repository"
)

// FeedService composes the paginated post timelines.
type FeedService struct {
	posts repository.PostRepository
}

func NewFeedService(posts repository.PostRepository) *FeedService {
	return &FeedService{posts: posts}
}

// postSource adapts a filtered post listing to Source.
type postSource struct {
	posts  repository.PostRepository
	filter repository.PostFilter
}

func (s postSource) Count(ctx context.Context) (int64, error) {
	return s.posts.Count(ctx, s.filter)
}

func (s postSource) Slice(ctx context.Context, offset, limit int) ([]models.Post, error) {
	return s.posts.List(ctx, s.filter, offset, limit)
}

func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (*Page[models.Post], error) {
	return Paginate[models.Post](ctx, postSource{posts: s.posts, filter: filter}, rawPage, PostsPerPage)
}

// Global returns every post, newest first.
func (s *FeedService) Global(ctx context.Context, rawPage string) (*Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

func (s *FeedService) Group(ctx context.Context, groupID uint, rawPage string) (*Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{GroupID: groupID}, rawPage)
}

func (s *FeedService) Profile(ctx context.Context, authorID uint, rawPage string) (*Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{AuthorID: authorID}, rawPage)
}

// Following returns posts by the authors userID follows.
func (s *FeedService) Following(ctx context.Context, userID uint, rawPage string) (*Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{FollowerID: userID}, rawPage)
}
