package posts

import (
	"time"
)

// Like records that a user liked a post
// A user appears at most once in a post's likes
type Like struct {
	User string `json:"user" bson:"user"`
}

// Comment is embedded in a Post and has no lifecycle of its own
type Comment struct {
	Date   time.Time `json:"date" bson:"date"`
	ID     string    `json:"_id" bson:"_id"`
	Text   string    `json:"text" bson:"text"`
	Name   string    `json:"name" bson:"name"`
	Avatar string    `json:"avatar" bson:"avatar"`
	User   string    `json:"user" bson:"user"`
}

// Post is the aggregate root: a post together with its likes and comments.
// Name and Avatar are denormalized from the author at write time.
type Post struct {
	Date     time.Time `json:"date"`
	ID       string    `json:"_id"`
	User     string    `json:"user"`
	Text     string    `json:"text"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	Likes    []Like    `json:"likes"`    // newest first
	Comments []Comment `json:"comments"` // newest first
	Version  int64     `json:"__v"`      // bumped by the store on every save
}

// PostInput is the request body for creating a post or adding a comment
type PostInput struct {
	Text   string `json:"text"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// NewPost builds an unsaved post owned by userID
// ID, Date and Version are assigned by the Repository on Create
func NewPost(userID string, input PostInput) *Post {
	return &Post{
		User:     userID,
		Text:     input.Text,
		Name:     input.Name,
		Avatar:   input.Avatar,
		Likes:    []Like{},
		Comments: []Comment{},
	}
}

// EventType identifies a post lifecycle event
type EventType string

const (
	EventPostCreated    EventType = "post.created"
	EventPostDeleted    EventType = "post.deleted"
	EventPostLiked      EventType = "post.liked"
	EventPostUnliked    EventType = "post.unliked"
	EventCommentAdded   EventType = "post.commented"
	EventCommentRemoved EventType = "post.comment_removed"
)

// Event is published after a mutation has been persisted
type Event struct {
	OccurredAt time.Time `json:"occurredAt"`
	Type       EventType `json:"type"`
	PostID     string    `json:"postId"`
	UserID     string    `json:"userId"`
	CommentID  string    `json:"commentId,omitempty"`
}
