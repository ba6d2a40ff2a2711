package services

import (
	"fmt"
	"io"
	"testing"
	"time"

	"yatube/internal/db"
	"yatube/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
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

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func createUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "x"}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func createPosts(t *testing.T, conn *gorm.DB, author *models.User, group *models.Group, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
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
	}
}
