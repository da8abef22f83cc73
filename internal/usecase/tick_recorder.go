package usecase

import (
	"context"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
)

// TickRecorder is the downstream end of the price pipeline: validated,
// throttled ticks land in the price book.
type TickRecorder struct {
	book domrepo.PriceBook
}

// NewTickRecorder creates a recorder writing into book.
func NewTickRecorder(book domrepo.PriceBook) *TickRecorder {
	return &TickRecorder{book: book}
}

// Process appends one tick to the book. Never fails; backpressure is the
// pipeline's concern, not the book's.
func (r *TickRecorder) Process(_ context.Context, t *models.PriceTick) error {
	r.book.Append(t)
	return nil
}
