package repository

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPost(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewCommentRepository(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	commenter := createUser(t, conn, "commenter")
	posts := createPosts(t, conn, author, nil, 2)

	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: &posts[0].ID, AuthorID: commenter.ID, Text: "first"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: &posts[0].ID, AuthorID: author.ID, Text: "second"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: &posts[1].ID, AuthorID: author.ID, Text: "elsewhere"}))

	comments, err := repo.ListByPost(ctx, posts[0].ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "commenter", comments[0].Author.Username)
	assert.Equal(t, "second", comments[1].Text)
	assert.False(t, comments[0].Created.IsZero())

	count, err := repo.CountByPost(ctx, posts[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
