package session

import "errors"

var (
	// ErrEmptyMessage is returned for blank text input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEmptyItem is returned for a blank item name.
	ErrEmptyItem = errors.New("item name is empty")

	// ErrResetDeclined is returned when the player does not confirm a reset.
	ErrResetDeclined = errors.New("reset not confirmed")

	// ErrSessionReset is returned for exchanges whose turn was wiped by a
	// reset before the request was sent. Nothing is sent or appended.
	ErrSessionReset = errors.New("session was reset")

	// ErrClosed is returned for operations after Close.
	ErrClosed = errors.New("session closed")
)

// Turn texts shown for non-text player actions and failed exchanges.
const (
	ImageTurnText = "Sent an image"
	ItemTurnFmt   = "Submitted item: %s"

	SendFailedText   = "Sorry, the message failed to send. Please try again."
	UploadFailedText = "Sorry, the image upload failed. Please try again."
	SubmitFailedText = "Sorry, the item could not be submitted. Please try again."

	ResetPrompt = "Are you sure you want to reset the game?"
)
