package orchestrate

// State identifies where a run currently is. States advance monotonically;
// a run never revisits a state.
type State int

const (
	Idle State = iota
	CheckingSelf
	SelfUpToDate
	DownloadingSelf
	HandingOff
	Exited
	CheckingWorker
	WorkerUpToDate
	UpdatingWorker
	IssuingToken
	LaunchingWorker
	Done
)

var stateNames = map[State]string{
	Idle:            "idle",
	CheckingSelf:    "checking-self",
	SelfUpToDate:    "self-up-to-date",
	DownloadingSelf: "downloading-self",
	HandingOff:      "handing-off",
	Exited:          "exited",
	CheckingWorker:  "checking-worker",
	WorkerUpToDate:  "worker-up-to-date",
	UpdatingWorker:  "updating-worker",
	IssuingToken:    "issuing-token",
	LaunchingWorker: "launching-worker",
	Done:            "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Event is emitted on every state entry and on download progress. Consumers
// that fall behind lose events rather than stalling the run.
type Event struct {
	State    State
	Message  string
	Progress float64 // 0..1 while downloading, otherwise 0
	Err      error
}

// Outcome tells the caller how a completed run ended.
type Outcome int

const (
	// OutcomeWorkerLaunched means the worker was started with a fresh token.
	OutcomeWorkerLaunched Outcome = iota
	// OutcomeHandedOff means a detached handoff executor was spawned and the
	// process must exit immediately so its executable can be replaced.
	OutcomeHandedOff
)
