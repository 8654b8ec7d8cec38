// Package model defines the persistent entities of the tender service
// and their lifecycle status machines.
package model

// All returns every model registered for migration, in dependency
// order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Organization{},
		&TenderCategory{},
		&Tender{},
		&TenderDocument{},
		&TenderAmendment{},
		&Vendor{},
		&Bid{},
		&BidDocument{},
		&Evaluation{},
		&BidEvaluation{},
		&Contract{},
		&Milestone{},
		&Clarification{},
		&Notification{},
		&Review{},
	}
}
