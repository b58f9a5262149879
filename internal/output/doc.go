// Package output renders a process forest.
//
// Formatters are selected by name and write a whole snapshot at once:
//
//	json, yaml   the placed tree as a document
//	chrome       Chrome trace-event JSON (chrome://tracing, Perfetto)
//	table        one row per placed process
//	timeline     text gantt chart, one line per track
//	tree         indented process dump
//	none         nothing
//
// OTELExporter is separate: it turns the forest into OpenTelemetry spans,
// one per process, with parent links following the process tree.
package output
