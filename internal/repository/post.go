package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero fields are ignored.
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint // only posts whose author this user follows
}

func (f PostFilter) scope(q *gorm.DB) *gorm.DB {
	if f.GroupID != 0 {
		q = q.Where("posts.group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.FollowerID != 0 {
		q = q.Joins("JOIN follows ON follows.author_id = posts.author_id").
			Where("follows.user_id = ?", f.FollowerID)
	}
	return q
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	List(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the editable columns only; pub_date and author are fixed at creation.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Select("text", "group_id", "image").
		Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Scopes(filter.scope).
		Preload("Author").
		Preload("Group").
		Order("posts.pub_date DESC, posts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.fillCommentCounts(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// fillCommentCounts sets CommentCount on every post with one grouped query.
func (r *postRepository) fillCommentCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}
	var results []countResult
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results).Error
	if err != nil {
		return models.NewInternalError(err)
	}

	countMap := make(map[uint]int, len(results))
	for _, res := range results {
		countMap[res.PostID] = res.Count
	}
	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
	return nil
}
