package seed

import (
	"context"
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	Authors            int
	Posts              int
	MaxCommentsPerPost int
	// ReplyRatio is the chance that a comment is a reply to an earlier
	// top-level comment on the same post.
	ReplyRatio float64
	// DraftRatio is the share of posts left unpublished.
	DraftRatio float64
	// MaxLikesPerPost bounds post and comment likes.
	MaxLikesPerPost int
	MaxDays         int
	Seed            int64
	Clean           bool
	// Force seeds even when posts already exist.
	Force  bool
	DryRun bool
}

// DefaultOptions returns the preset used by `cmd/seed` and SEED_DEMO.
func DefaultOptions() Options {
	return Options{
		Authors:            8,
		Posts:              40,
		MaxCommentsPerPost: 6,
		ReplyRatio:         0.35,
		DraftRatio:         0.2,
		MaxLikesPerPost:    6,
		MaxDays:            90,
	}
}

// Summary counts what a run created.
type Summary struct {
	Authors  int
	Posts    int
	Drafts   int
	Comments int
	Replies  int
	Likes    int
	Skipped  bool
}

var tagPool = []string{
	"go", "golang", "web", "databases", "postgres", "redis", "devops",
	"kubernetes", "cloud", "security", "testing", "performance", "design",
	"career", "open-source", "frontend", "backend", "tutorial", "opinion",
}

// Run populates db with authors, posts, comments and likes. Unless Force or
// Clean is set it does nothing when the database already holds posts.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	summary := &Summary{}
	db = db.WithContext(ctx)

	if opts.Clean && !opts.DryRun {
		if err := Clean(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to clean data: %w", err)
		}
	} else if !opts.Force && !opts.DryRun {
		var existing int64
		if err := db.Model(&models.Post{}).Count(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to count posts: %w", err)
		}
		if existing > 0 {
			log.Printf("seed: %d posts already present, skipping", existing)
			summary.Skipped = true
			return summary, nil
		}
	}

	log.Printf("seed: starting with %d authors and %d posts", opts.Authors, opts.Posts)
	f := NewFactory(db, opts)

	authors := make([]*models.Author, 0, opts.Authors)
	for i := 0; i < opts.Authors; i++ {
		author, err := f.CreateAuthor()
		if err != nil {
			return nil, fmt.Errorf("failed to create author: %w", err)
		}
		authors = append(authors, author)
	}
	summary.Authors = len(authors)
	if len(authors) == 0 {
		return summary, nil
	}

	for i := 0; i < opts.Posts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		post, err := f.CreatePost(authors[i%len(authors)])
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		summary.Posts++
		if !post.Published {
			summary.Drafts++
			continue
		}
		if err := seedEngagement(f, post, authors, opts, summary); err != nil {
			return nil, err
		}
	}

	log.Printf("seed: created %d authors, %d posts (%d drafts), %d comments (%d replies), %d likes",
		summary.Authors, summary.Posts, summary.Drafts, summary.Comments, summary.Replies, summary.Likes)
	return summary, nil
}

// seedEngagement adds comments, one-level replies and likes to a published post.
func seedEngagement(f *Factory, post *models.Post, authors []*models.Author, opts Options, summary *Summary) error {
	var topLevel []*models.Comment
	for n := f.faker.Number(0, max(opts.MaxCommentsPerPost, 0)); n > 0; n-- {
		commenter := authors[f.faker.Number(0, len(authors)-1)]
		placement := models.TopLevel()
		if len(topLevel) > 0 && f.faker.Float64Range(0, 1) < opts.ReplyRatio {
			placement = models.ReplyTo(topLevel[f.faker.Number(0, len(topLevel)-1)].ID)
		}
		comment, err := f.CreateComment(commenter, post, placement)
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		summary.Comments++
		if comment.IsReply {
			summary.Replies++
		} else {
			topLevel = append(topLevel, comment)
		}
		if f.faker.Bool() {
			liker := authors[f.faker.Number(0, len(authors)-1)]
			if err := f.CreateCommentLike(comment, liker.ID); err != nil {
				return fmt.Errorf("failed to like comment: %w", err)
			}
			summary.Likes++
		}
	}

	likes := min(f.faker.Number(0, max(opts.MaxLikesPerPost, 0)), len(authors))
	perm := seqInts(len(authors))
	f.faker.ShuffleInts(perm)
	for _, idx := range perm[:likes] {
		if err := f.CreatePostLike(post, authors[idx].ID); err != nil {
			return fmt.Errorf("failed to like post: %w", err)
		}
		summary.Likes++
	}
	return nil
}

func seqInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Clean removes all blog data. Images are left alone.
func Clean(ctx context.Context, db *gorm.DB) error {
	log.Println("seed: clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.CommentLike{}, &models.Comment{}, &models.PostLike{},
			&models.PostTag{}, &models.Post{}, &models.Author{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
