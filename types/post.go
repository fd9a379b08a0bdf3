package types

import "time"

// Post represents a single blog entry.
type Post struct {
	// ID is the unique identifier of the post, assigned on creation.
	ID int `json:"id" db:"id"`

	// Title is the post headline. It is required and never empty.
	Title string `json:"title" db:"title"`

	// Content is the post body. It may be empty.
	Content string `json:"content" db:"content"`

	// AuthorID references the owning user. It is set at creation and
	// never reassigned.
	AuthorID int `json:"-" db:"author_id"`

	// Author is the public projection of the owning user.
	Author Author `json:"author"`

	// FeaturedImage is the object-storage key of an optional cover
	// image, empty when none has been uploaded.
	FeaturedImage string `json:"featured_image,omitempty" db:"featured_image"`

	// CreatedAt is the timestamp when the post was created. Set once.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent mutation.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PostSummary is the list-view projection of a Post. It omits the body.
type PostSummary struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Author        Author    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	FeaturedImage string    `json:"featured_image,omitempty"`
}

// Summary returns the list-view projection of the post.
func (p Post) Summary() PostSummary {
	return PostSummary{
		ID:            p.ID,
		Title:         p.Title,
		Author:        p.Author,
		CreatedAt:     p.CreatedAt,
		FeaturedImage: p.FeaturedImage,
	}
}
