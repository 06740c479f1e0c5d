package dto

import "github.com/google/uuid"

type PostCreatedRequest struct {
	AuthorID uuid.UUID `json:"author_id" binding:"required"`
	PostID   uuid.UUID `json:"post_id" binding:"required"`
	Title    string    `json:"title" binding:"max=500"`
}

// InteractionRequest describes a like or comment by UserID on a post.
type InteractionRequest struct {
	UserID       uuid.UUID `json:"user_id" binding:"required"`
	PostID       uuid.UUID `json:"post_id" binding:"required"`
	PostAuthorID uuid.UUID `json:"post_author_id" binding:"required"`
}

type BonusRequest struct {
	Reason string `json:"reason" binding:"max=200"`
}
