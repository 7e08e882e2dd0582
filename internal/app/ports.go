package app

import "github.com/evanschultz/lanes/internal/domain"

// TaskGenerator builds a fresh task for a lane. Ids must be unique.
type TaskGenerator interface {
	NewTask(lane domain.LaneID) (domain.Task, error)
}

// Logger is the structured logging surface the engine writes to.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// BuildMode reports how a derived view was brought up to date.
type BuildMode string

// BuildMode values.
const (
	BuildModeFull        BuildMode = "full"
	BuildModeIncremental BuildMode = "incremental"
)

// Observer receives engine events, typically to record metrics.
type Observer interface {
	ObserveDrop(outcome DropOutcome)
	ObserveAppend(lane domain.LaneID)
	ObserveViewBuild(view string, mode BuildMode)
	ObserveLaneSize(lane domain.LaneID, size int)
}

type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}
func (nopLogger) Info(any, ...any)  {}
func (nopLogger) Warn(any, ...any)  {}
func (nopLogger) Error(any, ...any) {}

type nopObserver struct{}

func (nopObserver) ObserveDrop(DropOutcome)            {}
func (nopObserver) ObserveAppend(domain.LaneID)        {}
func (nopObserver) ObserveViewBuild(string, BuildMode) {}
func (nopObserver) ObserveLaneSize(domain.LaneID, int) {}
