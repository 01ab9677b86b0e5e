// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"inkwell/internal/content"
	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

const maxSeedTitleLen = 100

// Factory builds blog entities and persists them to the database.
// It is a thin helper used by Run and by tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to the provided Gorm DB. A zero
// opts.Seed draws a fresh seed from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// BuildAuthor constructs an author row as the identity provider would
// describe it, without persisting it.
func (f *Factory) BuildAuthor() *models.Author {
	first, last := f.faker.FirstName(), f.faker.LastName()
	id := "user_" + strings.ReplaceAll(f.faker.UUID(), "-", "")[:24]
	return &models.Author{
		ID:          id,
		DisplayName: first + " " + last,
		ImageURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id),
	}
}

// CreateAuthor builds and persists an author.
func (f *Factory) CreateAuthor(overrides ...func(*models.Author)) (*models.Author, error) {
	author := f.BuildAuthor()
	for _, override := range overrides {
		override(author)
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] CreateAuthor: id=%s name=%q", author.ID, author.DisplayName)
		return author, nil
	}

	if err := f.db.Create(author).Error; err != nil {
		return nil, err
	}
	return author, nil
}

// BuildPost constructs a post for author with a title, HTML body, derived
// slug and excerpt, a few tags and a created_at spread over MaxDays. It does
// not persist the post.
func (f *Factory) BuildPost(author *models.Author, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(4, 8)), ".")
	if r := []rune(title); len(r) > maxSeedTitleLen {
		title = strings.TrimSpace(string(r[:maxSeedTitleLen]))
	}
	body := f.htmlBody()

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.faker.Number(0, maxDays-1))*24*time.Hour +
		time.Duration(f.faker.Number(0, 23))*time.Hour +
		time.Duration(f.faker.Number(0, 59))*time.Minute
	createdAt := time.Now().Add(-age)

	post := &models.Post{
		Title:         title,
		Slug:          fmt.Sprintf("%s-%s", content.SlugOrFallback(title), strings.ToLower(f.faker.LetterN(6))),
		Content:       body,
		Excerpt:       content.Excerpt(body, content.MaxExcerptLength),
		FeaturedImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", f.faker.UUID()),
		AuthorID:      author.ID,
		Published:     f.faker.Float64Range(0, 1) >= f.opts.DraftRatio,
		Views:         int64(f.faker.Number(0, 2500)),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Tags:          f.pickTags(),
	}
	if !post.Published {
		post.Views = 0
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) htmlBody() string {
	var sb strings.Builder
	sections := f.faker.Number(2, 4)
	for i := 0; i < sections; i++ {
		if i > 0 {
			fmt.Fprintf(&sb, "<h2>%s</h2>", strings.TrimSuffix(f.faker.Sentence(4), "."))
		}
		for p := f.faker.Number(1, 3); p > 0; p-- {
			fmt.Fprintf(&sb, "<p>%s</p>", f.faker.Paragraph(1, f.faker.Number(3, 6), 12, " "))
		}
	}
	if f.faker.Bool() {
		fmt.Fprintf(&sb, "<blockquote>%s</blockquote>", f.faker.Quote())
	}
	return sb.String()
}

func (f *Factory) pickTags() []string {
	n := f.faker.Number(1, 3)
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, f.faker.RandomString(tagPool))
	}
	return content.NormalizeTags(tags)
}

// CreatePost builds and persists a post together with its tag set.
func (f *Factory) CreatePost(author *models.Author, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)

	if f.opts.DryRun {
		post.ID = f.syntheticID()
		log.Printf("[dry-run] CreatePost: author=%s slug=%s published=%v tags=%v", post.AuthorID, post.Slug, post.Published, post.Tags)
		return post, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(post.Tags) == 0 {
			return nil
		}
		rows := make([]models.PostTag, 0, len(post.Tags))
		for _, tag := range post.Tags {
			rows = append(rows, models.PostTag{PostID: post.ID, Tag: tag})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by author on post at the given placement.
// Comments are dated after the post they belong to.
func (f *Factory) CreateComment(author *models.Author, post *models.Post, placement models.Placement, overrides ...func(*models.Comment)) (*models.Comment, error) {
	since := time.Since(post.CreatedAt)
	offset := time.Duration(f.faker.Float64Range(0, 1) * float64(since))
	comment := &models.Comment{
		PostID:         post.ID,
		Content:        f.faker.Sentence(f.faker.Number(5, 20)),
		AuthorID:       author.ID,
		AuthorName:     author.DisplayName,
		AuthorImageURL: author.ImageURL,
		CreatedAt:      post.CreatedAt.Add(offset),
	}
	placement.Apply(comment)

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		comment.ID = f.syntheticID()
		log.Printf("[dry-run] CreateComment: post=%d author=%s reply=%v", comment.PostID, comment.AuthorID, comment.IsReply)
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreatePostLike persists a like from userID on post.
func (f *Factory) CreatePostLike(post *models.Post, userID string) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.PostLike{PostID: post.ID, UserID: userID}).Error
}

// CreateCommentLike persists a like from userID on comment.
func (f *Factory) CreateCommentLike(comment *models.Comment, userID string) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.CommentLike{CommentID: comment.ID, UserID: userID}).Error
}
