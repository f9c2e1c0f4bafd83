package models

// WorkerClass identifies a class of single-purpose workers. Each class
// declares the scope tags it accepts and the action predicates it is
// prohibited from, as a tagged variant rather than a type hierarchy.
type WorkerClass string

const (
	// WorkerFormatting handles code formatting and style-only changes.
	WorkerFormatting WorkerClass = "formatting-worker"
	// WorkerTypeCheck handles static type errors and annotations.
	WorkerTypeCheck WorkerClass = "type-check-worker"
	// WorkerTest handles test authoring and test failures.
	WorkerTest WorkerClass = "test-worker"
	// WorkerBuild handles build and dependency breakage.
	WorkerBuild WorkerClass = "build-worker"
	// WorkerDocs handles documentation-only changes.
	WorkerDocs WorkerClass = "docs-worker"
	// WorkerGeneral handles implementation work not owned by a
	// narrower class.
	WorkerGeneral WorkerClass = "general-worker"
)

// Valid returns true if the worker class is a known value.
func (w WorkerClass) Valid() bool {
	switch w {
	case WorkerFormatting, WorkerTypeCheck, WorkerTest, WorkerBuild,
		WorkerDocs, WorkerGeneral:
		return true
	default:
		return false
	}
}
