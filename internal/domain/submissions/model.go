package submissions

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Submission is a video sent by a user for moderation.
type Submission struct {
	ID          uuid.UUID
	SubmitterID int64
	FileID      string
	Caption     string
	ChatID      int64 // chat where the video was sent to the bot
	MessageID   int
	Status      Status
	CreatedAt   time.Time
	ReviewedBy  int64
	ReviewedAt  time.Time
}

var (
	ErrNotFound        = errors.New("submissions: not found")
	ErrAlreadyDecided  = errors.New("submissions: already processed")
	ErrInvalidDecision = errors.New("submissions: decision must be approved or rejected")
)

func New(submitterID int64, fileID, caption string, chatID int64, messageID int) Submission {
	return Submission{
		ID:          uuid.New(),
		SubmitterID: submitterID,
		FileID:      fileID,
		Caption:     caption,
		ChatID:      chatID,
		MessageID:   messageID,
		Status:      StatusPending,
	}
}

// Outcome of applying a decision to a submission.
type Outcome int

const (
	// Applied: the submission moved from pending to the requested status.
	Applied Outcome = iota
	// Repeated: the same decision was already applied; nothing to do.
	Repeated
	// Conflict: the submission was already decided the other way.
	Conflict
)

// Classify maps the result of Decide to an Outcome.
func Classify(requested Status, current *Submission, err error) (Outcome, error) {
	switch {
	case err == nil:
		return Applied, nil
	case errors.Is(err, ErrAlreadyDecided) && current != nil && current.Status == requested:
		return Repeated, nil
	case errors.Is(err, ErrAlreadyDecided):
		return Conflict, nil
	default:
		return Conflict, err
	}
}
