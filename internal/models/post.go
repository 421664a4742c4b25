package models

import "time"

// AuthorRef identifies the author embedded in a post.
type AuthorRef struct {
	ID           string `json:"id,omitempty"`
	Username     string `json:"username,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Post is a single feed entry. Liked and LikeCount always move together.
type Post struct {
	ID        string    `json:"id" validate:"required"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
	Author    AuthorRef `json:"author"`
	Liked     bool      `json:"liked"`
}

// WithLike returns a copy of p with the like flag set to liked, adjusting
// LikeCount by exactly one when the flag changes.
func (p Post) WithLike(liked bool) Post {
	if p.Liked == liked {
		return p
	}
	p.Liked = liked
	if liked {
		p.LikeCount++
	} else if p.LikeCount > 0 {
		p.LikeCount--
	}
	return p
}

// CreatePostRequest is the JSON body for a text-only post.
type CreatePostRequest struct {
	Content string `json:"content" validate:"required"`
}

// LikeResult is the data of a like toggle. Either field may be absent.
type LikeResult struct {
	Liked     *bool `json:"liked,omitempty"`
	LikeCount *int  `json:"likeCount,omitempty"`
}
