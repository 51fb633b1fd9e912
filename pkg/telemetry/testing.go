// ABOUTME: No-op telemetry helpers for tests - provides disabled telemetry only
// ABOUTME: Lets real components be tested with telemetry completely turned off

package telemetry

// NewForTesting returns a no-op telemetry instance for use in tests.
func NewForTesting() Telemetry {
	return NewNoop()
}
