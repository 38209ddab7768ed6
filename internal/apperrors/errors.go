package apperrors

import "errors"

// Not-found errors indicate that a single-target operation referenced an
// entity that does not exist. Handlers map these to 404; they are always
// returned to the caller, never swallowed.
var (
	// ErrRestrictionNotFound indicates that a wash sale restriction with the given ID does not exist.
	ErrRestrictionNotFound = errors.New("wash sale restriction not found")

	// ErrQueueItemNotFound indicates that a harvest queue item with the given ID does not exist.
	ErrQueueItemNotFound = errors.New("harvest queue item not found")

	// ErrTradeNotFound indicates that a queued trade with the given ID does not exist.
	ErrTradeNotFound = errors.New("queued trade not found")

	// ErrPositionNotFound indicates that no position is held for the given ticker.
	ErrPositionNotFound = errors.New("position not found")

	// ErrLedgerYearNotFound indicates no loss ledger entry exists for the given year.
	ErrLedgerYearNotFound = errors.New("loss ledger year not found")

	ErrRulesNotFound = errors.New("harvest rules not found")
)

// Invalid-state errors indicate that an operation is forbidden from the
// entity's current state. Single-target operations return these; bulk
// operations skip ineligible entries and report a count instead.
var (
	// ErrRestrictionStillActive indicates a rebuy was attempted before the wash sale window elapsed.
	ErrRestrictionStillActive = errors.New("wash sale restriction still active")

	// ErrRebuyAlreadyResolved indicates the restriction's rebuy was already completed or skipped.
	ErrRebuyAlreadyResolved = errors.New("rebuy already completed or skipped")

	// ErrQueueItemNotPending indicates an approve/reject was attempted on a non-pending queue item.
	ErrQueueItemNotPending = errors.New("harvest queue item is not pending")

	// ErrQueueItemNotApproved indicates an execution was attempted on a non-approved queue item.
	ErrQueueItemNotApproved = errors.New("harvest queue item is not approved")

	// ErrTickerRestricted indicates a harvest was attempted on a ticker with an active restriction.
	ErrTickerRestricted = errors.New("ticker has an active wash sale restriction")

	// ErrTradeNotApproved indicates an execution was attempted on a non-approved queued trade.
	ErrTradeNotApproved = errors.New("queued trade is not approved")
)

// Broker failures are deliberately absent: the execution coordinator
// converts them into result values at its boundary, so a sentinel would
// never be matched. Request-input errors live in the validation package.

var notFoundErrors = []error{
	ErrRestrictionNotFound,
	ErrQueueItemNotFound,
	ErrTradeNotFound,
	ErrPositionNotFound,
	ErrLedgerYearNotFound,
	ErrRulesNotFound,
}

var invalidStateErrors = []error{
	ErrRestrictionStillActive,
	ErrRebuyAlreadyResolved,
	ErrQueueItemNotPending,
	ErrQueueItemNotApproved,
	ErrTickerRestricted,
	ErrTradeNotApproved,
}

// IsNotFound reports whether err is (or wraps) one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInvalidState reports whether err is (or wraps) one of the invalid-state sentinels.
func IsInvalidState(err error) bool {
	for _, target := range invalidStateErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
