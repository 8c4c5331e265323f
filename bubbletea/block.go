package bubbletea

// MessageBlock is a renderable element of the conversation. View takes a
// width so the root model controls layout and blocks render in isolation.
type MessageBlock interface {
	View(width int) string
}
