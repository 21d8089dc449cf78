package pipeline

import "time"

// Status is the processing status of an uploaded document, advanced by
// the backend as it moves through the pipeline.
type Status string

const (
	StatusValidated Status = "validated"
	StatusParsing   Status = "parsing"
	StatusParsed    Status = "parsed"
	StatusChunking  Status = "chunking"
	StatusChunked   Status = "chunked"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Stage is one of the six ordered processing stages.
type Stage string

const (
	StageUpload  Stage = "upload"
	StageParse   Stage = "parse"
	StageVersion Stage = "version"
	StageSplit   Stage = "split"
	StageProcess Stage = "process"
	StageGraph   Stage = "graph"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageUpload, StageParse, StageVersion, StageSplit, StageProcess, StageGraph}

// Document is a user-uploaded file tracked through the pipeline.
// DocumentID is the graph group identifier and is assigned by the
// backend only once processing completes.
type Document struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Status     Status    `json:"status"`
	DocumentID string    `json:"document_id,omitempty"`
}

// stageInputs maps each stage to the statuses it can legally operate on.
// Error and completed statuses permit re-attempts: a failed document can
// be re-parsed or re-processed, and a completed one can be re-run from
// any stage.
var stageInputs = map[Stage]map[Status]bool{
	StageUpload:  nil, // uploading a new file is always allowed
	StageParse:   {StatusValidated: true, StatusError: true, StatusCompleted: true},
	StageVersion: {StatusParsed: true, StatusChunked: true, StatusCompleted: true},
	StageSplit:   {StatusParsed: true, StatusCompleted: true},
	StageProcess: {StatusParsed: true, StatusChunked: true, StatusError: true, StatusCompleted: true},
	StageGraph:   {StatusCompleted: true},
}

// CanRun reports whether the given stage may be invoked for a document
// in the given status.
func CanRun(stage Stage, status Status) bool {
	inputs, ok := stageInputs[stage]
	if !ok {
		return false
	}
	if inputs == nil {
		return true
	}
	return inputs[status]
}
