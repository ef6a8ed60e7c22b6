package orders

import "errors"

const (
	// MaxNumber is the input cap for order numbers.
	MaxNumber = 999999
	// RecommendCap is the largest number recommendations may propose.
	RecommendCap = 999
	// DefaultTTLMs is the TTL adopted for a room with no configured value.
	DefaultTTLMs = int64(5 * 60 * 1000)
)

var (
	// ErrInvalidNumber is returned for numbers outside 1..MaxNumber.
	ErrInvalidNumber = errors.New("order number must be between 1 and 999999")
	// ErrDuplicateNumber is returned when the number is already active in
	// the current local view.
	ErrDuplicateNumber = errors.New("order number is already on the board")
	// ErrNothingToUndo is returned when the undo buffer is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrEmptyRoom is returned when a service is created without a room ID.
	ErrEmptyRoom = errors.New("room id must not be empty")
	// ErrInvalidTTL is returned for non-positive TTL values.
	ErrInvalidTTL = errors.New("ttl must be at least one minute")
)
