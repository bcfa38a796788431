// Package upload applies the export triage policy to a local directory.
//
// Each file is judged once by its modification time against a threshold.
// Files older than the threshold are moved to quarantine without being
// transferred and raise the run's alert flag. Younger files are uploaded and
// deleted locally on success, or quarantined when the transfer fails.
//
// The pass never returns an error. Per-file results are reported as Outcome
// values; a local filesystem failure stops the pass and is reported in
// Result.Err with the remaining files left where they were.
package upload
