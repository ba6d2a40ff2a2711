// Command seed fills the configured database with demo data.
package main

import (
	"fmt"
	"os"

	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/logging"
	"yatube/internal/seed"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var opts seed.Options

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Fill the yatube database with demo data",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log := logging.New(cfg.LogLevel, cfg.LogFormat)

		conn, err := db.Open(cfg, log)
		if err != nil {
			return err
		}

		res, err := seed.NewSeeder(conn, opts).Run()
		if err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.WithFields(logrus.Fields{
			"groups":   res.Groups,
			"users":    res.Users,
			"posts":    res.Posts,
			"comments": res.Comments,
			"follows":  res.Follows,
		}).Infof("Seed complete, demo accounts use password %q", seed.DemoPassword)
		return nil
	},
}

func init() {
	rootCmd.Flags().IntVar(&opts.Users, "users", 10, "Number of users to create")
	rootCmd.Flags().IntVar(&opts.PostsPerUser, "posts", 15, "Posts per user")
	rootCmd.Flags().IntVar(&opts.CommentsPerPost, "comments", 2, "Comments per post")
	rootCmd.Flags().IntVar(&opts.FollowsPerUser, "follows", 3, "Authors each user follows")
	rootCmd.Flags().IntVar(&opts.MaxDays, "days", 90, "Spread post dates over this many days")
	rootCmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
