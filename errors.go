package budget

import "errors"

// Errors returned by the package. They are always wrapped with some context,
// test them with errors.Is.
var (
	// ErrValidation reports a missing or malformed input value (number, date, money).
	ErrValidation = errors.New("invalid parameter")

	// ErrNotFound reports a reference to an id that does not exist in a store.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports an attempt to insert a GUID that already exists.
	ErrDuplicate = errors.New("duplicate")

	// ErrBusinessRule reports a broken caller-level invariant, like an asset
	// allocation that does not sum to 100%.
	ErrBusinessRule = errors.New("business rule violation")

	// ErrPersistence reports an unreadable or corrupt backing medium.
	ErrPersistence = errors.New("persistence error")

	// ErrRateUnavailable reports that an exchange rate could not be fetched.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
