package ui

// Default component dimensions.
const (
	// DefaultWidth is the width assumed before the first resize message.
	DefaultWidth = 80

	// DefaultHeight is the height assumed before the first resize message.
	DefaultHeight = 24

	// DefaultInputWidth is the width of text inputs.
	DefaultInputWidth = 50

	// DefaultLogHeight is the number of task output lines kept visible.
	DefaultLogHeight = 8

	// DefaultProgressBarWidth is the default width for progress bars.
	DefaultProgressBarWidth = 30

	// MaxLogLines bounds the task output kept in memory.
	MaxLogLines = 500
)
