package token

// Pos locates a construct inside one of the loaded program description
// files. FileIndex refers to the file table registered with util, Line
// and Column are 1-based as reported by the YAML decoder.
type Pos struct {
	FileIndex int
	Line      int
	Column    int
	Len       int
}

// NoPos is used for diagnostics that have no source location, e.g.
// internal errors raised before any description has been loaded.
var NoPos = Pos{FileIndex: -1}

func (p Pos) IsValid() bool { return p.FileIndex >= 0 && p.Line > 0 }
