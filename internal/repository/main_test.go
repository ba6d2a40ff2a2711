package repository

import (
	"fmt"
	"testing"
	"time"

	"yatube/internal/db"
	"yatube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for SQL-shape tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func createUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "x"}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func createGroup(t *testing.T, conn *gorm.DB, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, conn.Create(group).Error)
	return group
}

// createPosts inserts n posts with strictly increasing pub dates.
func createPosts(t *testing.T, conn *gorm.DB, author *models.User, group *models.Group, n int) []models.Post {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := models.Post{
			Text:     fmt.Sprintf("post %d by %s", i, author.Username),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Second),
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, conn.Create(&p).Error)
		posts = append(posts, p)
	}
	return posts
}
