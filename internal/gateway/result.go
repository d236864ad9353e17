package gateway

import "fmt"

// Task labels used when rendering a failed call.
const (
	TaskRefine   = "refining prompt"
	TaskGenerate = "getting output"
)

// Result is the outcome of one completion call. Exactly one of Text and Err
// is meaningful: Err is set only when the call itself failed.
type Result struct {
	Text string
	Err  error
	Task string
}

// Failed reports whether the gateway call failed. Model text that merely
// looks like an error marker is not a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// String renders the result for display. Failures become
// "[Error <task>: <message>]" so callers never need a separate error path.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("[Error %s: %s]", r.Task, r.Err.Error())
	}
	return r.Text
}
