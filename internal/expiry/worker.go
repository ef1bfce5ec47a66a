package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/fightflight/backend/internal/models"
)

// ResumeArgs is the job that lifts a dated expiry pause.
type ResumeArgs struct {
	MemberID    uuid.UUID `json:"member_id"`
	PausedUntil time.Time `json:"paused_until"`
}

func (ResumeArgs) Kind() string { return "resume_credit_expiry" }

// Resumer is the contract the worker needs from the policy service.
type Resumer interface {
	ResumeIfDue(ctx context.Context, memberID uuid.UUID, pausedUntil time.Time) (bool, error)
}

type ResumeWorker struct {
	river.WorkerDefaults[ResumeArgs]
	resumer Resumer
}

func NewResumeWorker(r Resumer) *ResumeWorker {
	return &ResumeWorker{resumer: r}
}

func (w *ResumeWorker) Work(ctx context.Context, job *river.Job[ResumeArgs]) error {
	_, err := w.resumer.ResumeIfDue(ctx, job.Args.MemberID, job.Args.PausedUntil)
	if errors.Is(err, models.ErrNotFound) {
		// member is gone; nothing left to resume
		return nil
	}
	if err != nil {
		return fmt.Errorf("resume expiry for %s: %w", job.Args.MemberID, err)
	}
	return nil
}
