package repository

import "errors"

// Sentinel errors the stores return for outcomes the API layer has to
// distinguish from plain failure. Everything else is wrapped and
// surfaces as a generic 500.
var (
	// ErrRoomNotFound: join attempted against a room id that does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists: two names that slugify to the same id collided.
	// Creation is rejected instead of silently overwriting the first
	// room's admin.
	ErrRoomExists = errors.New("room id already taken")

	// ErrAlreadyInRoom: a user holds at most one membership at a time;
	// joining or creating while in a room is refused, not merged.
	ErrAlreadyInRoom = errors.New("user already belongs to a room")

	// ErrPollNotFound: vote referenced a poll outside the caller's room.
	ErrPollNotFound = errors.New("poll not found")

	// ErrPollClosed: vote arrived after the poll's expiry.
	ErrPollClosed = errors.New("poll is closed")

	// ErrOptionNotFound: vote referenced an option outside the poll.
	ErrOptionNotFound = errors.New("poll option not found")
)
