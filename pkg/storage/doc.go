// Package storage writes downloaded assets to the local filesystem.
//
// Layout: <root>/<album name>/<file name>. Album and file names come from the
// server and are reduced to a single path element first. Writes go through a
// temporary file in the album directory and a rename, so an existing file of
// the same name is replaced whole and a failed write leaves no partial file.
package storage
