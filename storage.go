package authstate

// SetOutcome is the three-way result of a SetItem call. A boolean would
// collapse "persisted" and "only in the memory fallback"; keeping them
// distinct lets callers decide whether a degraded write is good enough.
type SetOutcome int

const (
	// SetFailed means neither the backend nor the fallback holds the value.
	SetFailed SetOutcome = iota
	// SetPersisted means the backend write succeeded and verified.
	SetPersisted
	// SetFallbackOnly means the backend write failed but the value is
	// observable from the in-memory fallback for the rest of the process.
	SetFallbackOnly
)

func (o SetOutcome) String() string {
	switch o {
	case SetPersisted:
		return "persisted"
	case SetFallbackOnly:
		return "fallback_only"
	default:
		return "failed"
	}
}

// Readable reports whether a subsequent GetItem in this process will see the
// value.
func (o SetOutcome) Readable() bool {
	return o == SetPersisted || o == SetFallbackOnly
}

// StoreDiagnostics is the adapter-internal state surfaced to the Reporter.
type StoreDiagnostics struct {
	Platform          string   `json:"platform"`
	StorageAvailable  bool     `json:"storage_available"`
	FallbackItemCount int      `json:"fallback_item_count"`
	BackendPresent    bool     `json:"backend_present"`
	Backends          []string `json:"backends,omitempty"`
}
