// Package archive keeps a copy of every fetched catalog in object storage.
//
// Snapshots are JSON documents stored at snapshots/<tenant>/<provider>/<run id>.json
// so a sync run can be traced back to the exact remote state it reconciled.
// The bucket is created on first use.
package archive
