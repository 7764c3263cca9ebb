package types

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfiguration        = errors.New("configuration error")
	ErrUserNotFound         = errors.New("user not found")
	ErrScanNotFound         = errors.New("scan not found")
	ErrScanVerified         = errors.New("verified scans cannot be deleted")
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrAlreadyParticipating = errors.New("user already participating in this challenge")
	ErrNotParticipating     = errors.New("user not participating in this challenge")
	ErrChallengeClosed      = errors.New("challenge is not accepting contributions")
	ErrNotEligible          = errors.New("user is not eligible for this challenge")
	ErrTrainingNotFound     = errors.New("training module not found")
	ErrNotEnrolled          = errors.New("user is not enrolled in this training module")
	ErrTrainingCompleted    = errors.New("training module already completed")
	ErrPrerequisitesMissing = errors.New("training module prerequisites not completed")
)
