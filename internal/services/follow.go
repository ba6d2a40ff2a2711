package services

import (
	"context"

	"yatube/internal/repository"

	"github.com/sirupsen/logrus"
)

// FollowService maintains the directed follower -> author graph.
type FollowService struct {
	follows repository.FollowRepository
	log     logrus.FieldLogger
}

func NewFollowService(follows repository.FollowRepository, log logrus.FieldLogger) *FollowService {
	return &FollowService{follows: follows, log: log}
}

// Follow adds the edge. Self-follows and existing edges are silently ignored.
func (s *FollowService) Follow(ctx context.Context, followerID, authorID uint) error {
	if followerID == authorID {
		return nil
	}
	created, err := s.follows.Create(ctx, followerID, authorID)
	if err != nil {
		return err
	}
	if created {
		s.log.WithFields(logrus.Fields{"follower_id": followerID, "author_id": authorID}).Debug("follow created")
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, followerID, authorID uint) error {
	deleted, err := s.follows.Delete(ctx, followerID, authorID)
	if err != nil {
		return err
	}
	if deleted {
		s.log.WithFields(logrus.Fields{"follower_id": followerID, "author_id": authorID}).Debug("follow removed")
	}
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, authorID)
}

func (s *FollowService) FollowerCount(ctx context.Context, authorID uint) (int64, error) {
	return s.follows.CountFollowers(ctx, authorID)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.follows.CountFollowing(ctx, userID)
}

// AuthorStats is the follow summary shown on profile and post pages.
type AuthorStats struct {
	Following bool // whether the viewer follows the author
	Followers int64
	Follows   int64
}

// Stats gathers the author card numbers. viewerID 0 means anonymous.
func (s *FollowService) Stats(ctx context.Context, viewerID, authorID uint) (AuthorStats, error) {
	var stats AuthorStats
	var err error

	if viewerID != 0 {
		if stats.Following, err = s.IsFollowing(ctx, viewerID, authorID); err != nil {
			return stats, err
		}
	}
	if stats.Followers, err = s.FollowerCount(ctx, authorID); err != nil {
		return stats, err
	}
	if stats.Follows, err = s.FollowingCount(ctx, authorID); err != nil {
		return stats, err
	}
	return stats, nil
}
