package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInterview Status = "interview"
	StatusDeclined  Status = "declined"
)

var ErrNotFound = errors.New("job not found")

// Job is a single job application owned by exactly one user.
type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Company  string `json:"company" binding:"required,max=50"`
	Position string `json:"position" binding:"required,max=100"`
	Status   Status `json:"status" binding:"omitempty,oneof=pending interview declined"`
}

// a full update payload, same shape as create.
type UpdateRequest struct {
	Company  string `json:"company" binding:"required,max=50"`
	Position string `json:"position" binding:"required,max=100"`
	Status   Status `json:"status" binding:"omitempty,oneof=pending interview declined"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Status  *Status
	Company *string
	Limit   int
	Offset  int
}

func New(userID string, req CreateRequest) Job {
	now := time.Now().UTC()

	status := req.Status

	if status == "" {
		status = StatusPending
	}

	return Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		Company:   req.Company,
		Position:  req.Position,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
