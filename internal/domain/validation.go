/**
 * @description
 * This file implements the validation pipeline: pure, ordered predicate chains over a
 * request and, for transfers, a locked snapshot of the two accounts involved. Each
 * chain fails fast on the first violated rule and performs no writes, so every check
 * is safe to call speculatively.
 *
 * Transfer rule order is fixed and observable through the API:
 *   1. both national ids have length 8
 *   2. amount > 0
 *   3. both accounts exist (signalled by the store when the locked lookup misses)
 *   4. origin != destination
 *   5. origin balance covers the amount
 *
 * @notes
 * - Struct-tag validators aggregate failures per field and cannot express this
 *   ordering, which is why the rules are plain functions over domain values.
 */

package domain

import "strings"

// ValidateTransferRequest runs the request-stage transfer checks (rules 1 and 2),
// which need no store access.
func ValidateTransferRequest(req TransferRequest) error {
	if len(req.OriginNationalID) != NationalIDLength || len(req.DestinationNationalID) != NationalIDLength {
		return ErrInvalidNationalID
	}
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateTransferSnapshot runs the snapshot-stage transfer checks (rules 4 and 5)
// against account rows read under lock. Rule 3, account existence, is reported by the
// repository when the locked lookup finds no row, so both arguments are non-nil here.
func ValidateTransferSnapshot(origin, destination *Account, amount int64) error {
	if origin.NationalID == destination.NationalID {
		return ErrDuplicateAccount
	}
	if origin.Balance < amount {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateNewAccount runs the account-creation chain: non-empty name, age in range,
// national id of the exact length. National-id uniqueness is enforced by the store's
// unique index and surfaces as ErrDuplicateNationalID on insert.
func ValidateNewAccount(name string, age int, nationalID string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if age < MinAge || age > MaxAge {
		return ErrInvalidAge
	}
	if len(nationalID) != NationalIDLength {
		return ErrInvalidNationalID
	}
	return nil
}
