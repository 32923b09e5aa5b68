package domain

import "errors"

// Lookup errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	ErrJobNotFound  = errors.New("job not found")
)

// Write errors
var (
	ErrEmailTaken = errors.New("email already taken")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Ownership errors
var (
	ErrNotPostOwner = errors.New("only the post owner can perform this action")
)
