// Package workflow runs the worker loop that drains the job queue.
//
// The Manager long-polls a queue.Consumer, hands each message to a Handler
// (the conversion pipeline) and acknowledges it when the handler returns
// nil. Handlers that fail have already acknowledged the message themselves,
// so the manager only counts the failure. At most Concurrency messages are in
// flight; the loop does not receive more until a slot frees up.
//
// Empty receives pause for PollingWait and receive errors for
// ErrorRetryInterval. Stop cancels in-flight jobs and waits for them to
// unwind.
package workflow
