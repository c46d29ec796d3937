// Package ui prints plain status lines for the command line, such as the
// final "Fatal:" line. Output is coloured only when written to a terminal.
package ui
