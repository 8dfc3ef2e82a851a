// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queue adapts the tabular work-queue store: it maps raw rows to
// typed queue items, selects pending work, and writes single fields back by
// row and column address.
package queue

import "fmt"

// Field names one column of the queue table. Field identity, not physical
// position, is the persistence contract: each field is bound to exactly one
// stable column address in the table below.
type Field string

const (
	FieldTitle             Field = "post_title"
	FieldURL               Field = "post_url"
	FieldPostID            Field = "post_id"
	FieldTargetKeyword     Field = "target_keyword"
	FieldSecondaryKeywords Field = "secondary_keywords"
	FieldTier              Field = "tier"
	FieldPlatform          Field = "platform_category"
	FieldGoogleImpressions Field = "gsc_impressions"
	FieldGoogleClicks      Field = "gsc_clicks"
	FieldGoogleCTR         Field = "gsc_ctr"
	FieldGooglePosition    Field = "gsc_position"
	FieldBingImpressions   Field = "bing_impressions"
	FieldBingClicks        Field = "bing_clicks"
	FieldBingCTR           Field = "bing_ctr"
	FieldBingPosition      Field = "bing_position"
	FieldPriorityScore     Field = "priority_score"
	FieldStatus            Field = "status"
	FieldQuestionData      Field = "question_data"
	FieldKeywordData       Field = "keyword_data"
	FieldOptimizationDate  Field = "optimization_date"
	FieldReviewStatus      Field = "review_status"
	FieldDocRef            Field = "doc_ref"
	FieldErrorLog          Field = "error_log"
	FieldNotes             Field = "notes"
	FieldSection           Field = "section"
	FieldPostType          Field = "post_type"
	FieldSuggestedKeywords Field = "suggested_keywords"
	FieldDescription       Field = "description"
	FieldURLSlug           Field = "url_slug"
	FieldCompetitiveData   Field = "competitive_data"
)

// columns binds each field to its 0-based column index (A=0 .. AD=29).
var columns = map[Field]int{
	FieldTitle:             0,  // A
	FieldURL:               1,  // B
	FieldPostID:            2,  // C
	FieldTargetKeyword:     3,  // D
	FieldSecondaryKeywords: 4,  // E
	FieldTier:              5,  // F
	FieldPlatform:          6,  // G
	FieldGoogleImpressions: 7,  // H
	FieldGoogleClicks:      8,  // I
	FieldGoogleCTR:         9,  // J
	FieldGooglePosition:    10, // K
	FieldBingImpressions:   11, // L
	FieldBingClicks:        12, // M
	FieldBingCTR:           13, // N
	FieldBingPosition:      14, // O
	FieldPriorityScore:     15, // P
	FieldStatus:            16, // Q
	FieldQuestionData:      17, // R
	FieldKeywordData:       18, // S
	FieldOptimizationDate:  19, // T
	FieldReviewStatus:      20, // U
	FieldDocRef:            21, // V
	FieldErrorLog:          22, // W
	FieldNotes:             23, // X
	FieldSection:           24, // Y
	FieldPostType:          25, // Z
	FieldSuggestedKeywords: 26, // AA
	FieldDescription:       27, // AB
	FieldURLSlug:           28, // AC
	FieldCompetitiveData:   29, // AD
}

// SchemaWidth is the number of columns in the queue table.
const SchemaWidth = 30

// Column returns the 0-based column index bound to a field.
func Column(f Field) (int, error) {
	idx, ok := columns[f]
	if !ok {
		return 0, fmt.Errorf("unknown queue field %q", f)
	}
	return idx, nil
}

// ColumnLetter converts a 0-based column index to spreadsheet notation
// (0 → "A", 26 → "AA").
func ColumnLetter(idx int) string {
	if idx < 26 {
		return string(rune('A' + idx))
	}
	return string(rune('A'+idx/26-1)) + string(rune('A'+idx%26))
}
