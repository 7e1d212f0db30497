/**
 * @description
 * This file defines the core domain models for the account side of the service.
 * An Account ("persona") holds an integer credit balance and is identified both by a
 * store-assigned UUID and by a unique 8-character national id ("DNI").
 *
 * @notes
 * - Balances are stored as `int64` whole credits; new accounts always start at
 *   `InitialBalance` and a committed transfer can never drive a balance negative.
 * - The address field is optional and is filled in asynchronously by the branch
 *   enrichment consumer, never by the caller at creation time.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// InitialBalance is the credit balance assigned to every new account.
	InitialBalance int64 = 100

	// NationalIDLength is the exact length a national id ("DNI") must have.
	NationalIDLength = 8

	// MinAge and MaxAge bound the accepted age range, inclusive.
	MinAge = 1
	MaxAge = 99
)

// Account represents a credit-holding account. This struct maps directly to the
// `accounts` table in the primary store and to the mirrored document keyed by ID.
type Account struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	NationalID string    `json:"national_id"`
	Balance    int64     `json:"balance"`
	Address    *string   `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateAccountRequest is the DTO for incoming account-creation API requests.
// Balance and address are never caller-supplied.
type CreateAccountRequest struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	NationalID string `json:"national_id"`
}

// UpdateAccountRequest is the DTO for account updates. Nil fields are left
// untouched; the national id is immutable after creation.
type UpdateAccountRequest struct {
	Name    *string `json:"name,omitempty"`
	Age     *int    `json:"age,omitempty"`
	Address *string `json:"address,omitempty"`
	Balance *int64  `json:"balance,omitempty"`
}
