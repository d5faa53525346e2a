// Package index maintains the in-memory inverted index: term postings with
// positions, document lengths, and global statistics. Postings are sharded
// across independently locked maps so indexing workers and query readers do
// not contend on a single lock.
//
// The index is periodically snapshotted to a storage.IndexRepository and
// restored from the last complete snapshot at startup.
package index
