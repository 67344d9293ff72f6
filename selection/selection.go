// Package selection validates and prompts for a 1-based result index.
package selection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrInvalidSelection = errors.New("invalid selection")

type InvalidSelectionError struct {
	Index int
	Count int
}

func (e *InvalidSelectionError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("invalid selection %d: there are no results", e.Index)
	}
	return fmt.Sprintf("invalid selection %d: must be between 1 and %d", e.Index, e.Count)
}

func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

// Validate accepts idx only within [1, n].
func Validate(n, idx int) error {
	if idx < 1 || idx > n {
		return &InvalidSelectionError{Index: idx, Count: n}
	}
	return nil
}

// Prompt returns initial when it is valid for n results. Otherwise it writes a prompt
// to w and reads lines from r until one holds a valid index. Input ending before a
// valid index is read results in an InvalidSelectionError, as does n being zero.
func Prompt(r io.Reader, w io.Writer, n, initial int) (int, error) {
	if err := Validate(n, initial); nil == err {
		return initial, nil
	}
	if n < 1 {
		return 0, &InvalidSelectionError{Index: initial, Count: n}
	}

	last := initial
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprintf(w, "Select a track [1-%d]: ", n)
		if !scanner.Scan() {
			if err := scanner.Err(); nil != err {
				return 0, fmt.Errorf("failed to read selection: %v", err)
			}
			return 0, &InvalidSelectionError{Index: last, Count: n}
		}

		line := strings.TrimSpace(scanner.Text())
		idx, err := strconv.Atoi(line)
		if nil != err {
			fmt.Fprintf(w, "%q is not a number\n", line)
			continue
		}
		last = idx
		if err := Validate(n, idx); nil != err {
			fmt.Fprintln(w, err.Error())
			continue
		}
		return idx, nil
	}
}
