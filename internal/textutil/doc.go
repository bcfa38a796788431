// Package textutil validates file names that cross the boundary between the
// remote server and the local filesystem.
//
// Names arriving from a directory listing are untrusted: they are normalized
// to Unicode NFC so that visually identical names compare equal, and rejected
// when they could escape the target directory.
package textutil
