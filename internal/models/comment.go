package models

import "time"

// Comment is a reader comment on a post. Replies are flat rows pointing at a
// top-level parent; nesting is one level deep.
type Comment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PostID         uint      `gorm:"not null;index" json:"postId"`
	ParentID       *uint     `gorm:"index" json:"parentId,omitempty"`
	IsReply        bool      `gorm:"not null;default:false" json:"isReply"`
	Content        string    `gorm:"size:1000;not null" json:"content"`
	AuthorID       string    `gorm:"size:255;not null;index" json:"authorId"`
	AuthorName     string    `gorm:"size:255;not null" json:"authorName"`
	AuthorImageURL string    `gorm:"size:512" json:"authorImageUrl,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	LikesCount int64 `gorm:"->;-:migration" json:"likes"`
}

// CommentLike is one membership of a comment's like set.
type CommentLike struct {
	CommentID uint   `gorm:"primaryKey;autoIncrement:false"`
	UserID    string `gorm:"primaryKey;size:255"`
	CreatedAt time.Time
}

// TableName returns the database table name for CommentLike.
func (CommentLike) TableName() string { return "comment_likes" }

// CommentThread is a top-level comment with its replies, oldest reply first.
type CommentThread struct {
	*Comment
	Replies []*Comment `json:"replies"`
}

// Placement says where a new comment goes: at the top of a post or under a
// top-level comment. The zero value is top-level.
type Placement struct {
	parentID uint
}

// TopLevel places a comment directly on the post.
func TopLevel() Placement { return Placement{} }

// ReplyTo places a comment under the given top-level comment.
func ReplyTo(parentID uint) Placement { return Placement{parentID: parentID} }

// IsReply reports whether the placement targets a parent comment.
func (p Placement) IsReply() bool { return p.parentID != 0 }

// ParentID returns the parent comment ID, or zero for top-level placements.
func (p Placement) ParentID() uint { return p.parentID }

// Apply stamps the placement onto a comment, keeping IsReply and ParentID consistent.
func (p Placement) Apply(c *Comment) {
	if !p.IsReply() {
		c.ParentID = nil
		c.IsReply = false
		return
	}
	parent := p.parentID
	c.ParentID = &parent
	c.IsReply = true
}
