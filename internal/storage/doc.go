// Package storage persists the service's two file artifacts, the interaction
// table and the trained model, in a common envelope.
//
// # File Format
//
// An artifact file is a single gob-encoded envelope holding a Header and the
// gzip-compressed gob encoding of the payload. The header carries the
// artifact kind, a schema version, a generation id, and the SHA-256 checksum
// of the uncompressed payload, so a reader can reject a file written for a
// different purpose or by an incompatible build before decoding it.
//
// An artifact may also name the generation and checksum of the artifact it
// was derived from (SourceGenerationID, SourceChecksum). The model uses this
// to record which interaction table it was trained on.
//
// # Writes
//
// Write encodes into a temporary file in the destination directory and
// renames it into place, so readers never observe a partially written file.
package storage
