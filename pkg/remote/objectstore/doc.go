// Package objectstore implements the remote.ObjectStore interface on an
// S3-compatible endpoint. Objects mirror the archive layout under a
// configurable key prefix, and the file checksum travels as object
// metadata so existence checks never need to download content.
package objectstore
