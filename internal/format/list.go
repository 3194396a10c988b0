package format

// List is the envelope every collection endpoint returns.
type List[T any] struct {
	Items   []T    `json:"items"`
	Count   int    `json:"count"`
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
}

// NewList wraps items; emptyMessage is only surfaced when there is nothing to show.
func NewList[T any](items []T, emptyMessage string) List[T] {
	if items == nil {
		items = []T{}
	}
	l := List[T]{Items: items, Count: len(items), Empty: len(items) == 0}
	if l.Empty {
		l.Message = emptyMessage
	}
	return l
}
