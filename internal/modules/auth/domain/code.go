package domain

import "strings"

// CodeLength is the number of cells of an OTP code.
const CodeLength = 6

// CodeInput is the state of the six single-digit cells and the cell the
// view should focus.
type CodeInput struct {
	Cells [CodeLength]string `json:"cells"`
	Focus int                `json:"focus"`
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

// SetDigit writes value into the cell at index. value must be empty or a
// single ASCII digit; anything else, or an index out of range, is ignored.
// A digit written below the last cell moves focus to the next one. It
// reports whether the input changed.
func (c *CodeInput) SetDigit(index int, value string) bool {
	if index < 0 || index >= CodeLength {
		return false
	}
	if value != "" && !isDigit(value) {
		return false
	}
	c.Cells[index] = value
	if value != "" && index < CodeLength-1 {
		c.Focus = index + 1
	}
	return true
}

// Backspace on an empty cell moves focus back one cell. No cell value is
// cleared.
func (c *CodeInput) Backspace(index int) bool {
	if index <= 0 || index >= CodeLength {
		return false
	}
	if c.Cells[index] != "" {
		return false
	}
	c.Focus = index - 1
	return true
}

// Paste fills cells from the first one with the digits of text, up to six,
// and focuses the first empty cell or the last cell. Cells past the pasted
// digits keep their value. It returns the number of digits written.
func (c *CodeInput) Paste(text string) int {
	n := 0
	for _, r := range text {
		if n == CodeLength {
			break
		}
		if r >= '0' && r <= '9' {
			c.Cells[n] = string(r)
			n++
		}
	}
	if n == 0 {
		return 0
	}

	c.Focus = CodeLength - 1
	for i, cell := range c.Cells {
		if cell == "" {
			c.Focus = i
			break
		}
	}
	return n
}

// Code joins the cells.
func (c CodeInput) Code() string {
	return strings.Join(c.Cells[:], "")
}

// Complete reports whether every cell holds a digit.
func (c CodeInput) Complete() bool {
	for _, cell := range c.Cells {
		if cell == "" {
			return false
		}
	}
	return true
}

func (c *CodeInput) Reset() {
	*c = CodeInput{}
}
