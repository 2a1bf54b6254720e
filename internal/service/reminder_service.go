package service

import (
	"context"
	"log"
	"sync"
	"time"

	"repertoire/internal/repository"
)

// ReminderService emails users whose review queue has due items. It is
// driven by the server's maintenance ticker.
type ReminderService struct {
	reviewService *ReviewService
	emailService  *EmailService
	userRepo      *repository.UserRepository
	interval      time.Duration

	mu       sync.Mutex
	lastSent map[int64]time.Time
}

// NewReminderService creates a new reminder service. interval is the
// minimum gap between two reminders to the same user.
func NewReminderService(reviewService *ReviewService, emailService *EmailService, userRepo *repository.UserRepository, interval time.Duration) *ReminderService {
	return &ReminderService{
		reviewService: reviewService,
		emailService:  emailService,
		userRepo:      userRepo,
		interval:      interval,
		lastSent:      make(map[int64]time.Time),
	}
}

// SendDueReminders emails every user with due reviews who has not been
// reminded within the configured interval. Per-user failures are
// logged and skipped.
func (s *ReminderService) SendDueReminders(ctx context.Context) {
	if !s.emailService.IsEnabled() {
		return
	}

	now := time.Now()
	userIDs, err := s.reviewService.UsersWithDueReviews(now)
	if err != nil {
		log.Printf("Failed to list users with due reviews: %v", err)
		return
	}

	for _, userID := range userIDs {
		if !s.shouldRemind(userID, now) {
			continue
		}

		user, err := s.userRepo.GetUserByID(userID)
		if err != nil || user == nil {
			log.Printf("Failed to load user %d for reminder: %v", userID, err)
			continue
		}

		count, err := s.reviewService.DueCount(userID, now)
		if err != nil || count == 0 {
			continue
		}

		if err := s.emailService.SendReviewReminderEmail(ctx, user.Email, user.Name, count); err != nil {
			log.Printf("Failed to send review reminder to %s: %v", user.Email, err)
			continue
		}
		s.markReminded(userID, now)
	}
}

func (s *ReminderService) shouldRemind(userID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastSent[userID]
	return !ok || now.Sub(last) >= s.interval
}

func (s *ReminderService) markReminded(userID int64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent[userID] = now
}
