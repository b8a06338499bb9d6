package domain

// Stage identifies how far an extraction attempt progressed through the
// orchestrator's state machine.
type Stage string

const (
	StageStart         Stage = "START"
	StageHeaderFetched Stage = "HEADER_FETCHED"
	StageWindowDerived Stage = "WINDOW_DERIVED"
	StageExtracting    Stage = "EXTRACTING"
	StagePolling       Stage = "POLLING"
	StageRendering     Stage = "RENDERING"
	StageDone          Stage = "DONE"
)

// OutcomeStatus is the terminal state of an extraction attempt.
type OutcomeStatus string

const (
	StatusDone   OutcomeStatus = "DONE"
	StatusFailed OutcomeStatus = "FAILED"
)

// ExtractionRun records one batch-driver invocation.
type ExtractionRun struct {
	RunID      string // UUID
	ZapMode    string
	OutputDir  string
	Attempted  int
	Succeeded  int
	StartedAt  int64 // Unix timestamp in milliseconds
	FinishedAt int64 // Unix timestamp in milliseconds
}

// CandidateOutcome records the terminal state of one candidate within a run.
type CandidateOutcome struct {
	RunID       string
	Ordinal     int    // 1-based, unique within the run
	CandidateID string // deterministic hash, see idhash
	SNR         float64
	DM          float64
	Status      OutcomeStatus
	Stage       Stage  // stage reached (DONE for successes, failing stage otherwise)
	ImagePath   string // rendered PNG path, empty on failure
	Error       string // triggering error text, empty on success
}
