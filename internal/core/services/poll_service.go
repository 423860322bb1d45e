package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

const (
	maxQuestionLength = 500
	minOptions        = 2
	maxOptions        = 20
)

type pollService struct {
	repo ports.PollRepository
}

func NewPollService(repo ports.PollRepository) ports.PollService {
	return &pollService{
		repo: repo,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.NewValidationError("question cannot be empty")
	}
	if len(question) > maxQuestionLength {
		return nil, domain.NewValidationError(fmt.Sprintf("question cannot exceed %d characters", maxQuestionLength))
	}

	pollID := uuid.New()
	now := time.Now().UTC()

	poll := &domain.Poll{
		ID:        pollID,
		Question:  question,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, optText := range input.Options {
		text := strings.TrimSpace(optText)
		if text == "" {
			continue
		}
		poll.Options = append(poll.Options, domain.PollOption{
			ID:     uuid.New(),
			PollID: pollID,
			Text:   text,
		})
	}

	if len(poll.Options) < minOptions {
		return nil, domain.NewValidationError("at least 2 non-empty options are required")
	}
	if len(poll.Options) > maxOptions {
		return nil, domain.NewValidationError(fmt.Sprintf("maximum %d options allowed", maxOptions))
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	return s.repo.GetByID(ctx, pollID)
}
