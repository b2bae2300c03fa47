package pipeline

type Provenance string

const (
	ProvenanceUnavailable Provenance = "unavailable"
	ProvenanceReal        Provenance = "real"
	ProvenanceSynthetic   Provenance = "synthetic"
)

// Result carries a view's data together with where it came from. Synthetic
// and Unavailable results carry a user-facing Notice.
type Result[T any] struct {
	Provenance Provenance `json:"provenance"`
	Data       T          `json:"data"`
	Notice     string     `json:"notice,omitempty"`
}

func Real[T any](data T) Result[T] {
	return Result[T]{Provenance: ProvenanceReal, Data: data}
}

func Synthetic[T any](data T, notice string) Result[T] {
	return Result[T]{Provenance: ProvenanceSynthetic, Data: data, Notice: notice}
}

func Unavailable[T any](notice string) Result[T] {
	return Result[T]{Provenance: ProvenanceUnavailable, Notice: notice}
}

func (r Result[T]) Available() bool {
	return r.Provenance != ProvenanceUnavailable
}

func (r Result[T]) IsSynthetic() bool {
	return r.Provenance == ProvenanceSynthetic
}

// derive keeps r's provenance and notice for data computed from r.Data.
func derive[T, U any](r Result[T], data U) Result[U] {
	return Result[U]{Provenance: r.Provenance, Data: data, Notice: r.Notice}
}
