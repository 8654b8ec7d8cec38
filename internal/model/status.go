package model

// TenderStatus is the lifecycle state of a tender.
type TenderStatus string

const (
	TenderStatusDraft     TenderStatus = "draft"
	TenderStatusPublished TenderStatus = "published"
	TenderStatusClosed    TenderStatus = "closed"
	TenderStatusAwarded   TenderStatus = "awarded"
	TenderStatusCancelled TenderStatus = "cancelled"
)

// tenderTransitions lists the allowed next states per tender status.
// Amendments version a published tender without changing its status.
// Cancellation is only reachable from closed, so a published tender
// must be closed before it can be cancelled.
var tenderTransitions = map[TenderStatus][]TenderStatus{
	TenderStatusDraft:     {TenderStatusPublished},
	TenderStatusPublished: {TenderStatusClosed},
	TenderStatusClosed:    {TenderStatusAwarded, TenderStatusCancelled},
}

// CanTransition reports whether moving from s to next is allowed.
func (s TenderStatus) CanTransition(next TenderStatus) bool {
	for _, allowed := range tenderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s TenderStatus) IsTerminal() bool {
	return len(tenderTransitions[s]) == 0
}

// BidStatus is the lifecycle state of a bid.
type BidStatus string

const (
	BidStatusSubmitted       BidStatus = "submitted"
	BidStatusUnderEvaluation BidStatus = "under_evaluation"
	BidStatusShortlisted     BidStatus = "shortlisted"
	BidStatusRejected        BidStatus = "rejected"
	BidStatusAwarded         BidStatus = "awarded"
	BidStatusWithdrawn       BidStatus = "withdrawn"
)

// bidTransitions lists the allowed next states per bid status.
// Withdrawal additionally requires the tender deadline not to have
// passed, which is checked by the lifecycle layer.
var bidTransitions = map[BidStatus][]BidStatus{
	BidStatusSubmitted:       {BidStatusUnderEvaluation, BidStatusWithdrawn},
	BidStatusUnderEvaluation: {BidStatusShortlisted, BidStatusRejected},
	BidStatusShortlisted:     {BidStatusAwarded, BidStatusRejected},
}

// CanTransition reports whether moving from s to next is allowed.
func (s BidStatus) CanTransition(next BidStatus) bool {
	for _, allowed := range bidTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s BidStatus) IsTerminal() bool {
	return len(bidTransitions[s]) == 0
}

// ContractStatus is the lifecycle state of a contract.
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "draft"
	ContractStatusActive     ContractStatus = "active"
	ContractStatusSuspended  ContractStatus = "suspended"
	ContractStatusCompleted  ContractStatus = "completed"
	ContractStatusTerminated ContractStatus = "terminated"
)

var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:     {ContractStatusActive},
	ContractStatusActive:    {ContractStatusSuspended, ContractStatusCompleted, ContractStatusTerminated},
	ContractStatusSuspended: {ContractStatusActive, ContractStatusTerminated},
}

// CanTransition reports whether moving from s to next is allowed.
func (s ContractStatus) CanTransition(next ContractStatus) bool {
	for _, allowed := range contractTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s ContractStatus) IsTerminal() bool {
	return len(contractTransitions[s]) == 0
}

// MilestoneStatus is the lifecycle state of a contract milestone.
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusVerified   MilestoneStatus = "verified"
	MilestoneStatusPaid       MilestoneStatus = "paid"
	MilestoneStatusDelayed    MilestoneStatus = "delayed"
)

// milestoneTransitions lists the allowed next states per milestone
// status. A milestone may be verified straight from pending or after
// the in-progress/completed path. Verification requires a
// verification document reference and payment requires a payment
// receipt reference, both enforced by the lifecycle layer.
var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:    {MilestoneStatusInProgress, MilestoneStatusDelayed, MilestoneStatusVerified},
	MilestoneStatusInProgress: {MilestoneStatusCompleted, MilestoneStatusDelayed},
	MilestoneStatusDelayed:    {MilestoneStatusInProgress, MilestoneStatusCompleted},
	MilestoneStatusCompleted:  {MilestoneStatusVerified},
	MilestoneStatusVerified:   {MilestoneStatusPaid},
}

// CanTransition reports whether moving from s to next is allowed.
func (s MilestoneStatus) CanTransition(next MilestoneStatus) bool {
	for _, allowed := range milestoneTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s MilestoneStatus) IsTerminal() bool {
	return len(milestoneTransitions[s]) == 0
}
