// Package progress carries the one-way stream of events a generation run
// emits to its caller.
//
// Sinks never return errors: a sink that cannot deliver (for example a
// disconnected NATS server) logs and drops the event so delivery problems
// never fail a day.
package progress
