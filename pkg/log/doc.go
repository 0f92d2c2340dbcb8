/*
Package log provides structured logging for the worker process using zerolog.

Init configures the global Logger from a Config (level, JSON vs. console
output, destination writer). WithComponent, WithClientID, WithCombinerID, and
WithCorrelationID return child loggers with the corresponding field
preattached, so a single log line can be traced back to the subsystem, the
client identity, the combiner it was talking to, and the task's correlation
ID without callers repeating Str(...) calls at every call site.

Output is JSON in production (JSONOutput: true) and a human-readable console
writer otherwise, matching the two audiences the worker needs: log
aggregation in a cluster, and a readable terminal when running locally via
cmd/fednworker.
*/
package log
