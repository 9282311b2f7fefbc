package runtime

import (
	"strconv"
	"strings"
	"unicode"
)

var (
	romanValues  = [...]int{1000, 500, 100, 50, 10, 5, 1}
	romanLetters = [...]string{"M", "D", "C", "L", "X", "V", "I"}
)

// Roman encodes val (0..3999) as a roman numeral. Modes 1 to 4 allow
// increasingly aggressive subtractive abbreviations; mode 0 is classic.
func Roman(val, mode int) (string, error) {
	if mode < 0 || mode > 4 {
		return "", Fail(CodeValue, "because mode out of range in ROMAN")
	}
	if val < 0 || val >= 4000 {
		return "", Fail(CodeValue, "because value out of range in ROMAN")
	}
	var sb strings.Builder
	maxIndex := len(romanValues) - 1
	for i := 0; i <= maxIndex/2; i++ {
		index := i * 2
		digit := val / romanValues[index]
		if digit%5 == 4 {
			index2 := index - 2
			if digit == 4 {
				index2 = index - 1
			}
			for step := 0; step < mode && index < maxIndex; {
				step++
				if romanValues[index2]-romanValues[index+1] <= val {
					index++
				} else {
					step = mode
				}
			}
			sb.WriteString(romanLetters[index])
			sb.WriteString(romanLetters[index2])
			val += romanValues[index]
			val -= romanValues[index2]
			continue
		}
		if digit > 4 {
			sb.WriteString(romanLetters[index-1])
		}
		for j := 0; j < digit%5; j++ {
			sb.WriteString(romanLetters[index])
		}
		val %= romanValues[index]
	}
	return sb.String(), nil
}

// Address builds a cell reference string. absNum selects the absolute markers
// (1 both, 2 row only, 3 column only, 4 none); a1 chooses between A1 and R1C1
// notation. A non-empty sheet name is prefixed and quoted when required.
func Address(row, col, absNum int, a1 bool, sheet string) (string, error) {
	if row < 1 || col < 1 {
		return "", Fail(CodeValue, "because row or column < 1 in ADDRESS")
	}
	if absNum < 1 || absNum > 4 {
		return "", Fail(CodeValue, "because abs_num out of range in ADDRESS")
	}
	absRow := absNum == 1 || absNum == 2
	absCol := absNum == 1 || absNum == 3

	var sb strings.Builder
	if sheet != "" {
		sb.WriteString(quoteSheetName(sheet))
		sb.WriteByte('!')
	}
	if a1 {
		if absCol {
			sb.WriteByte('$')
		}
		sb.WriteString(ColumnName(col))
		if absRow {
			sb.WriteByte('$')
		}
		sb.WriteString(strconv.Itoa(row))
		return sb.String(), nil
	}
	writeR1C1 := func(prefix byte, n int, abs bool) {
		sb.WriteByte(prefix)
		if abs {
			sb.WriteString(strconv.Itoa(n))
		} else {
			sb.WriteString("[" + strconv.Itoa(n) + "]")
		}
	}
	writeR1C1('R', row, absRow)
	writeR1C1('C', col, absCol)
	return sb.String(), nil
}

// ColumnName returns the letters of a 1-based column number.
func ColumnName(col int) string {
	var buf []byte
	for col > 0 {
		col--
		buf = append([]byte{byte('A' + col%26)}, buf...)
		col /= 26
	}
	return string(buf)
}

func quoteSheetName(name string) string {
	plain := !unicode.IsDigit([]rune(name)[0])
	for _, c := range name {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '.' {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
