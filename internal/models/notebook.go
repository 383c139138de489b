package models

// CellType is the kind of a notebook cell
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
)

// Cell holds one notebook cell. Source keeps line endings as written.
type Cell struct {
	Type   CellType
	Source string
}

// Notebook is the in-memory form of a generated .ipynb document
type Notebook struct {
	Cells         []Cell
	PythonVersion string
}
