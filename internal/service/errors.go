package service

import "errors"

// Тексты ошибок показываются пользователю как есть.
var (
	ErrEmailInUse         = errors.New("This email is already in use")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUnknown            = errors.New("An unknown error occurred")
	ErrUpdateDisplayName  = errors.New("Failed to update user display name")
	ErrNoSession          = errors.New("no user is logged in")
	ErrInvalidInput       = errors.New("email and password are required")

	ErrInvalidID    = errors.New("id cannot be empty")
	ErrUserNotFound = errors.New("user not found")
	ErrChatNotFound = errors.New("chat room not found")
	ErrNotMember    = errors.New("user is not a member of this chat room")
	ErrForbidden    = errors.New("not allowed for this user")
	ErrInvalidName  = errors.New("chat room name cannot be empty")

	ErrEmptyMessage  = errors.New("message cannot be empty")
	ErrInvalidFile   = errors.New("file is required")
	ErrInvalidFileID = errors.New("file id may contain only letters, digits, '-' and '_'")
	ErrFileIDInUse   = errors.New("file id is already used in this chat room")
)
