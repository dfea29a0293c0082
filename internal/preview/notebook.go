package preview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Notebook is the subset of the Jupyter format the preview shows.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type Cell struct {
	CellType string      `json:"cell_type"`
	Source   MultiString `json:"source"`
	Outputs  []Output    `json:"outputs,omitempty"`
}

type Output struct {
	OutputType string      `json:"output_type"`
	Text       MultiString `json:"text,omitempty"`
	Data       OutputData  `json:"data"`
}

type OutputData struct {
	Plain MultiString `json:"text/plain,omitempty"`
	HTML  MultiString `json:"text/html,omitempty"`
}

// MultiString is a notebook text field, stored either as one string or as
// a list of lines.
type MultiString string

func (m *MultiString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = MultiString(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(b, &lines); err != nil {
		return fmt.Errorf("notebook text: %w", err)
	}
	*m = MultiString(strings.Join(lines, ""))
	return nil
}

// ParseNotebook decodes notebook JSON.
func ParseNotebook(content []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(content, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}
	return &nb, nil
}

// Display is what the output shows: its text stream, else its plain-text data.
func (o Output) Display() string {
	if o.Text != "" {
		return string(o.Text)
	}
	return string(o.Data.Plain)
}

var cellSeparator = strings.Repeat("#", 80)

// CopyText renders the notebook as plain text, one block per cell:
//
//	# Cell 1 [code]
//	print("hi")
//	# Output:
//	hi
//
//	################...
func (nb *Notebook) CopyText() string {
	blocks := make([]string, len(nb.Cells))
	for i, cell := range nb.Cells {
		var b strings.Builder
		fmt.Fprintf(&b, "# Cell %d [%s]\n%s\n", i+1, cell.CellType, cell.Source)

		outputs := make([]string, len(cell.Outputs))
		for j, o := range cell.Outputs {
			outputs[j] = o.Display()
		}
		if joined := strings.Join(outputs, "\n"); joined != "" {
			fmt.Fprintf(&b, "# Output:\n%s\n", joined)
		}

		b.WriteString("\n" + cellSeparator + "\n")
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n")
}
