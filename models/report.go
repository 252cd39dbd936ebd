package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportRow is one raw row of an uploaded sales report: an ordered slice of
// cell values (string or numeric) at fixed column offsets. The offsets below
// are the deployment-time contract with the agency's report template.
type ReportRow []interface{}

// Column offsets within a ReportRow.
const (
	ColCreatorName     = 0
	ColLiveManagerName = 1
	ColTeamManagerName = 2
	ColGrossAmount     = 3
	ColMilestoneS      = 4
	ColMilestoneN      = 5
	ColMilestoneO      = 6
	ColMilestoneP      = 7

	// MinRowLen is the shortest row the processor will look at.
	MinRowLen = 8
)

// Milestone names as they appear in report marker columns and bonus type tags.
const (
	MilestoneS = "S"
	MilestoneN = "N"
	MilestoneO = "O"
	MilestoneP = "P"
)

// Milestones lists the four milestones in report column order.
var Milestones = []string{MilestoneS, MilestoneN, MilestoneO, MilestoneP}

// MilestoneColumns maps each milestone to its marker cell offset.
var MilestoneColumns = map[string]int{
	MilestoneS: ColMilestoneS,
	MilestoneN: ColMilestoneN,
	MilestoneO: ColMilestoneO,
	MilestoneP: ColMilestoneP,
}

// MilestoneFlags records which milestones are active on a row. Computed once
// per row and never mutated afterwards.
type MilestoneFlags map[string]bool

// Active returns the active milestones in canonical order.
func (f MilestoneFlags) Active() []string {
	var active []string
	for _, m := range Milestones {
		if f[m] {
			active = append(active, m)
		}
	}
	return active
}

// ReportBatch is one atomic ingestion run. SourceHash is a SHA-256 over the
// canonicalized cell grid, unique-indexed across non-superseded batches so the
// same report content cannot be ingested twice by accident. A forced re-run
// marks the prior batch superseded (in the same transaction that inserts the
// new one), which takes it out of the unique index.
type ReportBatch struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BatchID      string              `json:"batchId" bson:"batchId"`
	Period       string              `json:"period" bson:"period"`
	SourceFile   string              `json:"sourceFile,omitempty" bson:"sourceFile,omitempty"`
	SourceHash   string              `json:"sourceHash" bson:"sourceHash"`
	RowCount     int                 `json:"rowCount" bson:"rowCount"`
	Processed    int                 `json:"processed" bson:"processed"`
	ErrorCount   int                 `json:"errorCount" bson:"errorCount"`
	Superseded   bool                `json:"superseded" bson:"superseded"`
	SupersededBy string              `json:"supersededBy,omitempty" bson:"supersededBy,omitempty"`
	Supersedes   string              `json:"supersedes,omitempty" bson:"supersedes,omitempty"`
	CreatedBy    *primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
}

// RowError reports one failed row of a batch without failing the batch.
type RowError struct {
	Row    int    `json:"row" bson:"row"`
	Reason string `json:"reason" bson:"reason"`
}

// IngestResult is what the ingestor returns to the upload workflow.
type IngestResult struct {
	BatchID   string     `json:"batchId"`
	Period    string     `json:"period"`
	Processed int        `json:"processed"`
	Skipped   int        `json:"skipped"`
	Errors    []RowError `json:"errors"`
}

// IngestRowsRequest is the JSON variant of report ingestion, for callers that
// already extracted the cell grid themselves.
type IngestRowsRequest struct {
	Period  string      `json:"period" validate:"required"`
	Rows    []ReportRow `json:"rows" validate:"required"`
	BatchID string      `json:"batchId"`
	Force   bool        `json:"force"`
}
