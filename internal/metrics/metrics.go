// Package metrics defines the template provider's observability hooks. The
// default implementation is a no-op so tests and tools that don't care about
// metrics never need to wire one up.
package metrics

// Recorder defines the metrics hooks for the template distribution engine.
type Recorder interface {
	ClientConnected()
	ClientDisconnected()
	TemplateIssued()
	TipChanged()
	MessageSent(msgType uint8)
	CacheSize(n int)
	PruneRun(removed int)
	SolutionSubmitted(success bool)
}

// NoopRecorder implements Recorder without emitting metrics.
type NoopRecorder struct{}

func (NoopRecorder) ClientConnected()          {}
func (NoopRecorder) ClientDisconnected()       {}
func (NoopRecorder) TemplateIssued()           {}
func (NoopRecorder) TipChanged()               {}
func (NoopRecorder) MessageSent(uint8)         {}
func (NoopRecorder) CacheSize(int)             {}
func (NoopRecorder) PruneRun(int)              {}
func (NoopRecorder) SolutionSubmitted(bool)    {}

// Default is the process-wide metrics sink; replace with a real
// implementation when ready.
var Default Recorder = NoopRecorder{}
