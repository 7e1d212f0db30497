/**
 * @description
 * This file defines the error taxonomy shared by the validation pipeline, the store,
 * and the API layer. Validation failures are sentinel errors so that handlers can map
 * them to transport responses with errors.Is instead of string matching.
 *
 * @notes
 * - The first eight errors are expected, caller-correctable conditions and are never
 *   retried internally.
 * - ErrPersistenceInconsistency signals that a write unit partially applied; it is
 *   surfaced distinctly and logged with full context, never masked as a generic 500.
 */

package domain

import "errors"

var (
	// ErrInvalidNationalID is returned when a national id is not exactly 8 characters.
	ErrInvalidNationalID = errors.New("national id must be exactly 8 characters")

	// ErrInvalidAmount is returned when a transfer amount is zero or negative.
	ErrInvalidAmount = errors.New("transfer amount must be greater than zero")

	// ErrInvalidName is returned when an account name is empty or blank.
	ErrInvalidName = errors.New("account name must not be empty")

	// ErrInvalidAge is returned when an age falls outside the accepted range.
	ErrInvalidAge = errors.New("account age must be between 1 and 99")

	// ErrDuplicateNationalID is returned when the national id is already assigned.
	ErrDuplicateNationalID = errors.New("national id is already assigned")

	// ErrAccountNotFound is the standard miss signal for account lookups.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned when origin and destination are the same account.
	ErrDuplicateAccount = errors.New("origin and destination accounts must differ")

	// ErrInsufficientFunds is returned when the origin balance cannot cover a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransactionNotFound is the miss signal for transaction lookups.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPersistenceInconsistency reports a partially applied write unit.
	ErrPersistenceInconsistency = errors.New("persistence inconsistency detected")
)

// IsValidationError reports whether err belongs to the caller-correctable part of
// the taxonomy, as opposed to infrastructure faults.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidNationalID,
		ErrInvalidAmount,
		ErrInvalidName,
		ErrInvalidAge,
		ErrDuplicateNationalID,
		ErrAccountNotFound,
		ErrDuplicateAccount,
		ErrInsufficientFunds,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
