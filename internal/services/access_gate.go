package services

import "github.com/welldanyogia/webrana-loveletters-backend/internal/models"

// Operation is a per-letter action a caller wants to perform
type Operation int

const (
	OpView Operation = iota
	OpMarkRead
	OpUnlock
	OpDelete
	OpEditDraft
)

func (o Operation) String() string {
	switch o {
	case OpView:
		return "view"
	case OpMarkRead:
		return "mark_read"
	case OpUnlock:
		return "unlock"
	case OpDelete:
		return "delete"
	case OpEditDraft:
		return "edit_draft"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Authorize
type Decision int

const (
	// Deny is reported to callers exactly like a missing record
	Deny Decision = iota
	// Allow lets the operation proceed
	Allow
	// Noop means the caller is entitled but the operation has nothing to do
	Noop
	// Invalid means the caller is entitled but the record is in the wrong state
	Invalid
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Noop:
		return "noop"
	case Invalid:
		return "invalid"
	default:
		return "deny"
	}
}

// canView applies the visibility rules: drafts belong to the sender alone,
// delivered letters to exactly the sender and the recipient.
func canView(caller string, msg *models.Message) bool {
	if caller == "" || msg == nil {
		return false
	}
	if msg.IsDraft {
		return caller == msg.Sender
	}
	return caller == msg.Sender || caller == msg.Recipient
}

// Authorize decides whether caller may perform op on msg. It has no side
// effects and consults nothing but its arguments. Any caller that cannot
// see the letter gets Deny regardless of op.
func Authorize(caller string, msg *models.Message, op Operation) Decision {
	if !canView(caller, msg) {
		return Deny
	}

	isRecipient := !msg.IsDraft && caller == msg.Recipient

	switch op {
	case OpView, OpDelete:
		return Allow

	case OpMarkRead:
		if !isRecipient {
			return Deny
		}
		if msg.IsGated() || msg.IsRead() {
			return Noop
		}
		return Allow

	case OpUnlock:
		if !isRecipient {
			return Deny
		}
		if !msg.IsGated() {
			return Invalid
		}
		return Allow

	case OpEditDraft:
		if caller != msg.Sender {
			return Deny
		}
		if !msg.IsDraft {
			return Invalid
		}
		return Allow

	default:
		return Deny
	}
}
