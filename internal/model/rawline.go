package model

// RawLine is one unparsed line read from a followed job log.
type RawLine struct {
	Text   string
	Line   int // 1-based position in the file
	Source string
}
