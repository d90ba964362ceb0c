package lob

// DepthChange is the L2 update implied by one BookLog.
type DepthChange struct {
	Side     Side
	Price    Price
	SizeDiff Quantity
}

// CalculateDepthChange calculates the depth change based on the book log.
// It returns a DepthChange struct indicating which side and price level should be updated.
// Note: For LogTypeMatch, the side returned is the Maker's side (opposite of the log's side).
func CalculateDepthChange(log *BookLog) DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size,
		}
	case LogTypeCancel:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: -log.Size,
		}
	case LogTypeMatch:
		// the taker never rests while matching, so only the maker level shrinks
		return DepthChange{
			Side:     log.Side.Opposite(),
			Price:    log.Price,
			SizeDiff: -log.Size,
		}
	case LogTypeAmend:
		// Priority lost: the old order leaves its level. The re-entered order is
		// covered by the Match and Open logs that follow.
		if log.OldPrice != log.Price || log.Size > log.OldSize {
			return DepthChange{
				Side:     log.Side,
				Price:    log.OldPrice,
				SizeDiff: -log.OldSize,
			}
		}

		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size - log.OldSize,
		}
	}

	// Reject and unknown logs never touch the book.
	return DepthChange{}
}
