// Package seed fills a database with demo groups, users, posts, comments
// and follows. It is meant for local development only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"yatube/internal/db"
	"yatube/internal/models"
	"yatube/internal/utils"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultGroups are created on every run unless their slug already exists.
var DefaultGroups = []models.Group{
	{Title: "Cats", Slug: "cats", Description: "Everything about cats."},
	{Title: "Travel", Slug: "travel", Description: "Trip reports and photos."},
	{Title: "Books", Slug: "books", Description: "What we are reading."},
	{Title: "Go", Slug: "go", Description: "Notes on the Go programming language."},
}

// DemoPassword is set on every generated account.
const DemoPassword = "yatube-demo"

type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	MaxDays         int
	Seed            int64
}

type Result struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder builds demo entities with gofakeit and persists them.
type Seeder struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker
	rnd  *rand.Rand
}

func NewSeeder(conn *gorm.DB, opts Options) *Seeder {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Seeder{
		db:   conn,
		opts: opts,
		fake: gofakeit.New(opts.Seed),
		rnd:  rand.New(rand.NewSource(opts.Seed)),
	}
}

// Run seeds everything inside one transaction.
func (s *Seeder) Run() (Result, error) {
	var res Result
	err := s.db.Transaction(func(tx *gorm.DB) error {
		created, err := db.SeedGroups(tx, DefaultGroups)
		if err != nil {
			return err
		}
		res.Groups = created

		var groups []models.Group
		if err := tx.Find(&groups).Error; err != nil {
			return err
		}

		users, err := s.createUsers(tx)
		if err != nil {
			return err
		}
		res.Users = len(users)

		for _, u := range users {
			n, c, err := s.createPosts(tx, u, users, groups)
			if err != nil {
				return err
			}
			res.Posts += n
			res.Comments += c
		}

		res.Follows, err = s.createFollows(tx, users)
		return err
	})
	return res, err
}

func (s *Seeder) createUsers(tx *gorm.DB) ([]models.User, error) {
	hash, err := utils.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user := models.User{
			Username:  fmt.Sprintf("%s%d", s.fake.Username(), s.rnd.Intn(10000)),
			FirstName: s.fake.FirstName(),
			LastName:  s.fake.LastName(),
			Password:  hash,
		}
		if utils.IsReservedUsername(user.Username) || !utils.ValidUsername(user.Username) {
			user.Username = fmt.Sprintf("user%d_%d", i, s.rnd.Intn(100000))
		}
		var taken int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			user.Username = fmt.Sprintf("%s_%d", user.Username, i)
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// pastTime spreads timestamps over the last MaxDays days.
func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.rnd.Int63n(int64(s.opts.MaxDays) * int64(24*time.Hour)))
	return time.Now().Add(-back)
}

func (s *Seeder) createPosts(tx *gorm.DB, author models.User, users []models.User, groups []models.Group) (int, int, error) {
	posts, comments := 0, 0
	for i := 0; i < s.opts.PostsPerUser; i++ {
		post := models.Post{
			Text:     s.fake.Paragraph(1, 3, 8, "\n\n"),
			AuthorID: author.ID,
			PubDate:  s.pastTime(),
		}
		if len(groups) > 0 && s.rnd.Intn(3) > 0 {
			post.GroupID = &groups[s.rnd.Intn(len(groups))].ID
		}
		if err := tx.Create(&post).Error; err != nil {
			return posts, comments, fmt.Errorf("create post: %w", err)
		}
		posts++

		for j := 0; j < s.opts.CommentsPerPost && len(users) > 0; j++ {
			comment := models.Comment{
				PostID:   &post.ID,
				AuthorID: users[s.rnd.Intn(len(users))].ID,
				Text:     s.fake.Sentence(12),
				Created:  post.PubDate.Add(time.Duration(j+1) * time.Minute),
			}
			if err := tx.Create(&comment).Error; err != nil {
				return posts, comments, fmt.Errorf("create comment: %w", err)
			}
			comments++
		}
	}
	return posts, comments, nil
}

func (s *Seeder) createFollows(tx *gorm.DB, users []models.User) (int, error) {
	created := 0
	for _, u := range users {
		seen := map[uint]bool{u.ID: true}
		for attempt := 0; attempt < s.opts.FollowsPerUser*3 && len(seen) <= s.opts.FollowsPerUser; attempt++ {
			author := users[s.rnd.Intn(len(users))]
			if seen[author.ID] {
				continue
			}
			seen[author.ID] = true
			if err := tx.Create(&models.Follow{UserID: u.ID, AuthorID: author.ID}).Error; err != nil {
				return created, fmt.Errorf("create follow: %w", err)
			}
			created++
		}
	}
	return created, nil
}
