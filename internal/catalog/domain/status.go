package domain

// DeriveStatus reconciles a title's lifecycle status with its progress.
// Favorite is never overwritten. Progress beyond totalUnits is tolerated and
// counts as completed.
func DeriveStatus(kind Kind, progress, totalUnits int, current Status) Status {
	if current == StatusFavorite {
		return StatusFavorite
	}

	if kind == KindSeries {
		switch {
		case progress <= 0:
			return StatusPlanned
		case totalUnits > 0 && progress < totalUnits:
			return StatusInProgress
		case totalUnits > 0:
			return StatusCompleted
		}
		// no declared length: leave the status alone
		return current
	}

	if progress >= 1 {
		return StatusCompleted
	}
	return StatusPlanned
}
