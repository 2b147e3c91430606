// Package queue receives conversion job messages.
//
// Two transports are supported. The SQS consumer long-polls a queue URL and
// deletes a message when it is acknowledged. The Redis consumer pops entries
// from a list with BLPOP; delivery already removes the entry, so its Ack is a
// no-op. Both satisfy Consumer, which the workflow manager drives.
package queue
