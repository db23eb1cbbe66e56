// AngelaMos | 2026
// dto.go

package comment

import (
	"time"

	"github.com/carterperez-dev/bloghub/internal/user"
)

type CreateCommentRequest struct {
	BlogID string `json:"blogId" validate:"required,uuid"`
	Text   string `json:"text"   validate:"required,min=1,max=5000"`
}

type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=5000"`
}

type CommentResponse struct {
	ID        string      `json:"id"`
	BlogID    string      `json:"blogId"`
	Text      string      `json:"text"`
	User      user.Author `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toResponse(c *Comment, author user.Author) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		BlogID:    c.BlogID,
		Text:      c.Text,
		User:      author,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
