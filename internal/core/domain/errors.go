package domain

import "errors"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidPollID = errors.New("invalid poll id")
	ErrInvalidOption = errors.New("invalid option for this poll")
	ErrAlreadyVoted  = errors.New("voter has already voted on this poll")
	ErrRateLimited   = errors.New("too many vote attempts")
)
