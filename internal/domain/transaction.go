/**
 * @description
 * This file defines the transfer-side domain models. A Transaction is the immutable
 * record of a credit movement between two accounts, keyed by the national ids of the
 * parties rather than their internal UUIDs, matching the wire shape callers submit.
 *
 * @notes
 * - Transactions have no update path. They are created only by a successful transfer
 *   and can be removed only through the bulk delete operation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the append-only record of a completed transfer.
// This struct maps directly to the `transactions` table in the primary store.
type Transaction struct {
	ID                    uuid.UUID `json:"id"`
	OriginNationalID      string    `json:"origin_national_id"`
	DestinationNationalID string    `json:"destination_national_id"`
	Amount                int64     `json:"amount"`
	CreatedAt             time.Time `json:"created_at"`
}

// TransferRequest is the DTO for incoming transfer API requests.
type TransferRequest struct {
	OriginNationalID      string `json:"origin_national_id"`
	DestinationNationalID string `json:"destination_national_id"`
	Amount                int64  `json:"amount"`
}
