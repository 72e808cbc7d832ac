package models

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrQuotationLocked         = errors.New("completed quotations cannot be edited")
	ErrRecordInUse             = errors.New("record is still referenced")
)

/* Quotation */

type QuotationStatus string

const (
	QuotationStatusDraft        QuotationStatus = "draft"
	QuotationStatusSent         QuotationStatus = "sent"
	QuotationStatusAccepted     QuotationStatus = "accepted"
	QuotationStatusRejected     QuotationStatus = "rejected"
	QuotationStatusDocsUploaded QuotationStatus = "docs_uploaded"
	QuotationStatusShipped      QuotationStatus = "Shipped"
	QuotationStatusCompleted    QuotationStatus = "completed"
)

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusDraft:        {QuotationStatusSent, QuotationStatusRejected},
	QuotationStatusSent:         {QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusDocsUploaded},
	QuotationStatusAccepted:     {QuotationStatusDocsUploaded, QuotationStatusShipped},
	QuotationStatusDocsUploaded: {QuotationStatusShipped, QuotationStatusAccepted},
	QuotationStatusShipped:      {QuotationStatusCompleted},
	QuotationStatusRejected:     {QuotationStatusDraft},
	QuotationStatusCompleted:    {},
}

func (s QuotationStatus) IsValid() bool {
	_, ok := quotationTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range quotationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsDocuments reports whether a document submission moves the quotation to docs_uploaded.
func (s QuotationStatus) AcceptsDocuments() bool {
	return s == QuotationStatusDraft || s == QuotationStatusSent || s == QuotationStatusAccepted
}

// IsActive is true for quotations a customer still has to act on.
func (s QuotationStatus) IsActive() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted, QuotationStatusDocsUploaded:
		return true
	}
	return false
}

// CountsAsRevenue is true once the customer has accepted the price.
func (s QuotationStatus) CountsAsRevenue() bool {
	switch s {
	case QuotationStatusAccepted, QuotationStatusDocsUploaded, QuotationStatusShipped, QuotationStatusCompleted:
		return true
	}
	return false
}

func AllQuotationStatuses() []QuotationStatus {
	return []QuotationStatus{
		QuotationStatusDraft,
		QuotationStatusSent,
		QuotationStatusAccepted,
		QuotationStatusDocsUploaded,
		QuotationStatusShipped,
		QuotationStatusCompleted,
		QuotationStatusRejected,
	}
}

/* Document submission */

type DocumentStatus string

const (
	DocumentStatusSubmitted DocumentStatus = "submitted"
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusApproved  DocumentStatus = "approved"
	DocumentStatusRejected  DocumentStatus = "rejected"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusSubmitted, DocumentStatusPending, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// IsReviewOutcome is true for statuses a reviewer may set.
func (s DocumentStatus) IsReviewOutcome() bool {
	return s == DocumentStatusPending || s == DocumentStatusApproved || s == DocumentStatusRejected
}

/* Packing list */

type PackingListStatus string

const (
	PackingListStatusDraft     PackingListStatus = "draft"
	PackingListStatusCompleted PackingListStatus = "completed"
	PackingListStatusArchived  PackingListStatus = "archived"
)

func (s PackingListStatus) IsValid() bool {
	switch s {
	case PackingListStatusDraft, PackingListStatusCompleted, PackingListStatusArchived:
		return true
	}
	return false
}

/* Opportunity */

type OpportunityStage string

const (
	OpportunityStageInquiry          OpportunityStage = "inquiry"
	OpportunityStageQuoting          OpportunityStage = "quoting"
	OpportunityStagePendingDocs      OpportunityStage = "pending_docs"
	OpportunityStagePendingBooking   OpportunityStage = "pending_booking"
	OpportunityStageBookingRequested OpportunityStage = "booking_requested"
	OpportunityStageAwbReceived      OpportunityStage = "awb_received"
	OpportunityStagePaymentReceived  OpportunityStage = "payment_received"
	OpportunityStageClosedWon        OpportunityStage = "closed_won"
	OpportunityStageClosedLost       OpportunityStage = "closed_lost"
)

type stageInfo struct {
	label       string
	probability int
}

var opportunityStages = []OpportunityStage{
	OpportunityStageInquiry,
	OpportunityStageQuoting,
	OpportunityStagePendingDocs,
	OpportunityStagePendingBooking,
	OpportunityStageBookingRequested,
	OpportunityStageAwbReceived,
	OpportunityStagePaymentReceived,
	OpportunityStageClosedWon,
	OpportunityStageClosedLost,
}

var opportunityStageInfo = map[OpportunityStage]stageInfo{
	OpportunityStageInquiry:          {"Initial Inquiry", 10},
	OpportunityStageQuoting:          {"Quoting", 20},
	OpportunityStagePendingDocs:      {"Pending Documents", 30},
	OpportunityStagePendingBooking:   {"Pending Booking", 45},
	OpportunityStageBookingRequested: {"Booking Requested", 60},
	OpportunityStageAwbReceived:      {"AWB Received", 75},
	OpportunityStagePaymentReceived:  {"Payment Received", 85},
	OpportunityStageClosedWon:        {"Shipped (Won)", 100},
	OpportunityStageClosedLost:       {"Lost Case", 0},
}

func AllOpportunityStages() []OpportunityStage {
	out := make([]OpportunityStage, len(opportunityStages))
	copy(out, opportunityStages)
	return out
}

func (s OpportunityStage) IsValid() bool {
	_, ok := opportunityStageInfo[s]
	return ok
}

func (s OpportunityStage) Label() string {
	return opportunityStageInfo[s].label
}

func (s OpportunityStage) DefaultProbability() int {
	return opportunityStageInfo[s].probability
}

// Rank orders stages along the pipeline; closed stages rank last.
func (s OpportunityStage) Rank() int {
	for i, stage := range opportunityStages {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s OpportunityStage) IsClosed() bool {
	return s == OpportunityStageClosedWon || s == OpportunityStageClosedLost
}

/* Events */

type EventReferenceType string

const (
	EventReferenceQuotation   EventReferenceType = "QUOTATION"
	EventReferenceDocument    EventReferenceType = "DOCUMENT"
	EventReferencePackingList EventReferenceType = "PACKING_LIST"
	EventReferenceOpportunity EventReferenceType = "OPPORTUNITY"
	EventReferenceDebitNote   EventReferenceType = "DEBIT_NOTE"
)

type EventAction string

const (
	EventActionCreate EventAction = "C"
	EventActionUpdate EventAction = "U"
	EventActionDelete EventAction = "D"
	EventActionStatus EventAction = "S"
)

/* History */

const (
	HistoryActionCreate = "Create"
	HistoryActionUpdate = "Update"
	HistoryActionDelete = "Delete"
	HistoryActionStatus = "Status"
)
