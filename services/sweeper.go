package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"knowme/models"
	"knowme/storage"

	"gorm.io/gorm"
)

const mediaCleanupTimeout = 30 * time.Second

// SweepResult is what one sweep cycle reports back to the scheduler and
// to tests.
type SweepResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	QuizIDs []uint `json:"quiz_ids,omitempty"`
	Err     error  `json:"-"`
}

// Sweeper removes quizzes that outlived their retention window, with
// their attempts, questions and uploaded images. It is an explicitly
// owned background task: started once from main with a cancelable
// context, and drivable synchronously through RunOnce in tests.
type Sweeper struct {
	db           *gorm.DB
	media        storage.MediaStore
	cache        *QuizCache
	initialDelay time.Duration
	interval     time.Duration
	now          func() time.Time
	done         chan struct{}
}

func NewSweeper(db *gorm.DB, media storage.MediaStore, cache *QuizCache, initialDelay, interval time.Duration) *Sweeper {
	return &Sweeper{
		db:           db,
		media:        media,
		cache:        cache,
		initialDelay: initialDelay,
		interval:     interval,
		now:          time.Now,
		done:         make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is canceled. A cycle that
// fails, or even panics, is logged and the next tick still fires.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		select {
		case <-time.After(s.initialDelay):
		case <-ctx.Done():
			return
		}

		s.runGuarded(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runGuarded(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until the loop started by Start has exited.
func (s *Sweeper) Wait() {
	<-s.done
}

func (s *Sweeper) runGuarded(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Sweep cycle panicked: %v", r)
		}
	}()

	result := s.RunOnce(ctx)
	switch {
	case !result.Success:
		log.Printf("Sweep cycle failed: %v", result.Err)
	case result.Count > 0:
		log.Printf("Sweep cycle removed %d expired quizzes: %v", result.Count, result.QuizIDs)
	}
}

// RunOnce executes a single sweep cycle synchronously.
func (s *Sweeper) RunOnce(ctx context.Context) SweepResult {
	cutoff := s.now().Add(-models.RetentionPeriod)

	// Plain column selects only: scanning full Question rows would run
	// the JSON column scanners, and one corrupt blob would fail this
	// query on every cycle and keep expired data alive forever.
	var expired []models.Quiz
	err := s.db.WithContext(ctx).
		Select("id", "access_code", "url_slug").
		Where("created_at < ?", cutoff).
		Find(&expired).Error
	if err != nil {
		return SweepResult{Err: fmt.Errorf("querying expired quizzes: %w", err)}
	}

	// Nothing to do most days.
	if len(expired) == 0 {
		return SweepResult{Success: true}
	}

	quizIDs := make([]uint, 0, len(expired))
	for _, quiz := range expired {
		quizIDs = append(quizIDs, quiz.ID)
	}

	var imageURLs []string
	err = s.db.WithContext(ctx).Model(&models.Question{}).
		Where("quiz_id IN ? AND image_url <> ''", quizIDs).
		Pluck("image_url", &imageURLs).Error
	if err != nil {
		return SweepResult{Err: fmt.Errorf("collecting image urls: %w", err)}
	}

	// Media first, best effort: a dead image host must not keep expired
	// quiz data alive. Orphaned images are the lesser failure.
	s.cleanupImages(ctx, imageURLs)

	// Children before parents; the FK cascade would cover it, but the
	// sweeper is the source of truth and must not depend on the engine
	// enforcing it.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizAttempt{}).Error; err != nil {
			return fmt.Errorf("deleting attempts: %w", err)
		}
		if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.Question{}).Error; err != nil {
			return fmt.Errorf("deleting questions: %w", err)
		}
		if err := tx.Where("id IN ?", quizIDs).Delete(&models.Quiz{}).Error; err != nil {
			return fmt.Errorf("deleting quizzes: %w", err)
		}
		return nil
	})
	if err != nil {
		return SweepResult{Err: err}
	}

	for i := range expired {
		s.cache.Invalidate(&expired[i])
	}

	return SweepResult{Success: true, Count: len(expired), QuizIDs: quizIDs}
}

// cleanupImages deletes every referenced image under one guarding
// timeout so a hanging object store cannot stall the rest of the cycle.
func (s *Sweeper) cleanupImages(ctx context.Context, imageURLs []string) {
	if s.media == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, mediaCleanupTimeout)
	defer cancel()

	for _, imageURL := range imageURLs {
		objectName := s.media.ObjectNameFromURL(imageURL)
		if objectName == "" {
			continue
		}
		if err := s.media.Delete(ctx, objectName); err != nil {
			log.Printf("Failed to delete image %s: %v", objectName, err)
		}
	}
}
