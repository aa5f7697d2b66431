package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeInput_SetDigitAdvancesFocus(t *testing.T) {
	var c CodeInput

	assert.True(t, c.SetDigit(0, "4"))
	assert.Equal(t, "4", c.Cells[0])
	assert.Equal(t, 1, c.Focus)

	assert.True(t, c.SetDigit(5, "9"))
	assert.Equal(t, 1, c.Focus, "the last cell does not advance")
}

func TestCodeInput_SetDigitRejectsNonDigits(t *testing.T) {
	var c CodeInput
	c.SetDigit(0, "1")

	for _, v := range []string{"a", "12", " ", "٣", "-"} {
		assert.False(t, c.SetDigit(1, v), v)
	}
	assert.Equal(t, "", c.Cells[1])
	assert.Equal(t, 1, c.Focus)

	assert.False(t, c.SetDigit(-1, "1"))
	assert.False(t, c.SetDigit(6, "1"))
}

func TestCodeInput_SetDigitClearsCell(t *testing.T) {
	var c CodeInput
	c.SetDigit(2, "7")

	assert.True(t, c.SetDigit(2, ""))
	assert.Equal(t, "", c.Cells[2])
	assert.Equal(t, 3, c.Focus, "clearing a cell keeps focus")
}

func TestCodeInput_Backspace(t *testing.T) {
	var c CodeInput
	c.SetDigit(0, "1")
	c.SetDigit(1, "2")

	assert.True(t, c.Backspace(2))
	assert.Equal(t, 1, c.Focus)
	assert.Equal(t, "2", c.Cells[1], "the previous value is kept")

	assert.False(t, c.Backspace(1), "non-empty cell")
	assert.False(t, c.Backspace(0))
}

func TestCodeInput_Paste(t *testing.T) {
	var c CodeInput

	assert.Equal(t, 6, c.Paste("123456extra"))
	assert.Equal(t, [CodeLength]string{"1", "2", "3", "4", "5", "6"}, c.Cells)
	assert.Equal(t, 5, c.Focus)
	assert.True(t, c.Complete())
	assert.Equal(t, "123456", c.Code())
}

func TestCodeInput_PasteStripsAndFocusesFirstEmpty(t *testing.T) {
	var c CodeInput

	assert.Equal(t, 3, c.Paste("1-2 x3"))
	assert.Equal(t, "123", c.Code())
	assert.Equal(t, 3, c.Focus)
	assert.False(t, c.Complete())

	assert.Equal(t, 0, c.Paste("no digits"))
	assert.Equal(t, "123", c.Code())
}

func TestCodeInput_PasteOverExisting(t *testing.T) {
	var c CodeInput
	c.Paste("999999")

	c.Paste("12")
	assert.Equal(t, "129999", c.Code())
	assert.Equal(t, 5, c.Focus)
}

func TestCodeInput_Reset(t *testing.T) {
	var c CodeInput
	c.Paste("123456")
	c.Reset()
	assert.Equal(t, CodeInput{}, c)
}
