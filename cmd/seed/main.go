// Command seed fills the database with generated authors, posts and comments.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	opts := defaults

	flag.IntVar(&opts.Authors, "authors", defaults.Authors, "Number of authors to create")
	flag.IntVar(&opts.Posts, "posts", defaults.Posts, "Number of posts to create")
	flag.IntVar(&opts.MaxCommentsPerPost, "comments", defaults.MaxCommentsPerPost, "Maximum comments per published post")
	flag.Float64Var(&opts.DraftRatio, "drafts", defaults.DraftRatio, "Share of posts left as drafts (0-1)")
	flag.IntVar(&opts.MaxDays, "days", defaults.MaxDays, "Spread post dates over this many days")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one from the clock)")
	flag.BoolVar(&opts.Clean, "clean", false, "Delete existing blog data before seeding")
	flag.BoolVar(&opts.Force, "force", false, "Seed even if posts already exist")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Log what would be created without writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("Runtime close error: %v", err)
		}
	}()

	summary, err := seed.Run(ctx, rt.DB, opts)
	if err != nil {
		log.Printf("Seeding failed: %v", err)
		return
	}
	if summary.Skipped {
		log.Println("Database already has posts; rerun with -force or -clean to seed anyway.")
		return
	}
	log.Printf("Seeded %d authors, %d posts, %d comments, %d likes.",
		summary.Authors, summary.Posts, summary.Comments, summary.Likes)
}
