package screening

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ProgressFunc receives the number of processed records and the batch size.
type ProgressFunc func(done, total int)

// Service runs the assessor over batches of comments.
type Service struct {
	assessor *Assessor
	logger   *log.Logger
	now      func() time.Time
}

// NewService constructs a batch service around assessor.
func NewService(assessor *Assessor, logger *log.Logger) (*Service, error) {
	if assessor == nil {
		return nil, errors.New("assessor is required")
	}
	return &Service{assessor: assessor, logger: logger, now: time.Now}, nil
}

// Assess classifies a single comment.
func (s *Service) Assess(ctx context.Context, text string) Assessment {
	return s.assessor.Assess(ctx, text)
}

// ClassifyBatch assesses records in order and returns one row per record.
// Failed assessments stay in the table as Error rows. The call is
// synchronous; run it on another goroutine to keep a caller responsive.
// When ctx ends before the batch completes, the rows produced so far are
// returned together with an error wrapping ErrCancelled.
func (s *Service) ClassifyBatch(ctx context.Context, records []CommentRecord, progress ProgressFunc) (ResultTable, error) {
	batchID := uuid.New().String()[:8]
	total := len(records)
	table := make(ResultTable, 0, total)
	s.logf("batch %s: classifying %d comments", batchID, total)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			s.logf("[CANCEL] batch %s cancelled after %d of %d comments", batchID, i, total)
			return table, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		table = append(table, AssessmentResult{
			Index:      i,
			Record:     rec,
			Assessment: s.assessor.Assess(ctx, rec.Text),
			AssessedAt: s.now(),
		})
		if progress != nil {
			progress(i+1, total)
		}
	}
	normal, flagged, failed := table.Counts()
	s.logf("batch %s: %d normal, %d cyberbullying, %d errors", batchID, normal, flagged, failed)
	return table, nil
}

// ClassifyTexts wraps plain strings as records and classifies them.
func (s *Service) ClassifyTexts(ctx context.Context, texts []string, progress ProgressFunc) (ResultTable, error) {
	records := make([]CommentRecord, len(texts))
	for i, t := range texts {
		records[i] = CommentRecord{Text: t}
	}
	return s.ClassifyBatch(ctx, records, progress)
}

func (s *Service) logf(format string, args ...any) {
	logf(s.logger, format, args...)
}
