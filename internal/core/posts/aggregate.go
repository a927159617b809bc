package posts

import "time"

// HasLiked reports whether userID appears in the post's likes
func (p *Post) HasLiked(userID string) bool {
	return p.likeIndex(userID) >= 0
}

// Like prepends userID to the likes
func (p *Post) Like(userID string) error {
	if p.HasLiked(userID) {
		return ErrAlreadyLiked
	}
	p.Likes = append([]Like{{User: userID}}, p.Likes...)
	return nil
}

// Unlike removes the first like by userID
func (p *Post) Unlike(userID string) error {
	idx := p.likeIndex(userID)
	if idx < 0 {
		return ErrNotLiked
	}
	p.Likes = append(p.Likes[:idx:idx], p.Likes[idx+1:]...)
	return nil
}

// AddComment prepends a new comment and returns it.
// input must already have passed the Validator.
func (p *Post) AddComment(input PostInput, userID, commentID string, at time.Time) Comment {
	comment := Comment{
		ID:     commentID,
		Text:   input.Text,
		Name:   input.Name,
		Avatar: input.Avatar,
		User:   userID,
		Date:   at,
	}
	p.Comments = append([]Comment{comment}, p.Comments...)
	return comment
}

// RemoveComment splices out the comment with the given id
func (p *Post) RemoveComment(commentID string) error {
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return ErrCommentNotFound
}

// AssertOwner fails with ErrNotAuthorized unless userID owns the post
func (p *Post) AssertOwner(userID string) error {
	if p.User != userID {
		return ErrNotAuthorized
	}
	return nil
}

// Clone returns a deep copy; stores and caches never share slices with callers
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Likes = append(make([]Like, 0, len(p.Likes)), p.Likes...)
	cp.Comments = append(make([]Comment, 0, len(p.Comments)), p.Comments...)
	return &cp
}

func (p *Post) likeIndex(userID string) int {
	for i, l := range p.Likes {
		if l.User == userID {
			return i
		}
	}
	return -1
}
