package models

import "time"

// Post is a blog article. Tags and likes are persisted as sets in
// post_tags and post_likes; the counters below are computed on read.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Slug          string    `gorm:"size:160;not null;uniqueIndex" json:"slug"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Excerpt       string    `gorm:"size:200;not null" json:"excerpt"`
	FeaturedImage string    `gorm:"size:512" json:"featuredImage,omitempty"`
	AuthorID      string    `gorm:"size:255;not null;index" json:"authorId"`
	Published     bool      `gorm:"not null;default:false;index" json:"published"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Tags []string `gorm:"-" json:"tags"`

	LikesCount   int64 `gorm:"->;-:migration" json:"likes"`
	CommentCount int64 `gorm:"->;-:migration" json:"commentCount"`
	Liked        bool  `gorm:"->;-:migration" json:"liked"`

	Author      *AuthorInfo `gorm:"-" json:"author,omitempty"`
	ReadingTime int         `gorm:"-" json:"readingTime,omitempty"`
}

// PostTag is one membership of a post's tag set.
type PostTag struct {
	PostID uint   `gorm:"primaryKey;autoIncrement:false"`
	Tag    string `gorm:"primaryKey;size:64;index"`
}

// TableName returns the database table name for PostTag.
func (PostTag) TableName() string { return "post_tags" }

// PostLike is one membership of a post's like set.
type PostLike struct {
	PostID    uint   `gorm:"primaryKey;autoIncrement:false"`
	UserID    string `gorm:"primaryKey;size:255"`
	CreatedAt time.Time
}

// TableName returns the database table name for PostLike.
func (PostLike) TableName() string { return "post_likes" }

// TagCount is one row of the popular tag aggregate.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// TaggedPosts is one page of posts bearing a tag.
type TaggedPosts struct {
	Posts      []*Post `json:"posts"`
	TotalPosts int64   `json:"totalPosts"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

// DashboardStats summarizes an author's posts.
type DashboardStats struct {
	TotalPosts int64 `json:"totalPosts"`
	Published  int64 `json:"published"`
	Drafts     int64 `json:"drafts"`
	TotalViews int64 `json:"totalViews"`
	TotalLikes int64 `json:"totalLikes"`
}
