package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recommendation is an evaluator's verdict on a single bid.
type Recommendation string

const (
	RecommendationRecommend    Recommendation = "recommend"
	RecommendationConditional  Recommendation = "conditional"
	RecommendationNotRecommend Recommendation = "not_recommend"
)

// Evaluation represents one evaluator's pass over a tender's bids.
// Criteria and weights are stored as JSON documents.
type Evaluation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenderID    uuid.UUID `json:"tender_id" gorm:"type:uuid;not null;index"`
	EvaluatorID uuid.UUID `json:"evaluator_id" gorm:"type:uuid;not null"`

	TechnicalCriteria string `json:"technical_criteria" gorm:"type:text"`
	FinancialCriteria string `json:"financial_criteria" gorm:"type:text"`

	Notes       string    `json:"notes" gorm:"type:text"`
	IsCompleted bool      `json:"is_completed" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	BidEvaluations []BidEvaluation `json:"bid_evaluations,omitempty" gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook assigns the record identifier
func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// BidEvaluation represents one evaluator's scores for one bid.
// Scores are percentages bounded to [0, 100].
type BidEvaluation struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EvaluationID uuid.UUID `json:"evaluation_id" gorm:"type:uuid;not null;uniqueIndex:idx_evaluation_bid,priority:1"`
	BidID        uuid.UUID `json:"bid_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_evaluation_bid,priority:2"`

	TechnicalScores string  `json:"technical_scores" gorm:"type:text"`
	TechnicalScore  float64 `json:"technical_score"`
	FinancialScore  float64 `json:"financial_score"`
	TotalScore      float64 `json:"total_score" gorm:"index"`

	Remarks        string         `json:"remarks" gorm:"type:text"`
	Recommendation Recommendation `json:"recommendation" gorm:"type:varchar(50)"`

	EvaluatedAt time.Time `json:"evaluated_at" gorm:"autoCreateTime"`
}

// BeforeCreate hook assigns the record identifier
func (be *BidEvaluation) BeforeCreate(tx *gorm.DB) error {
	if be.ID == uuid.Nil {
		be.ID = uuid.New()
	}
	return nil
}
