package log

import (
	"bytes"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// frames emitted by debug.Stack and the deferred recover before the panicking call
const panicStackSkipLines = 9

// Panic logs a value obtained from recover together with the stack of the panicking goroutine.
func Panic(recovered any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		lines := bytes.Split(debug.Stack(), []byte("\n"))
		if len(lines) > panicStackSkipLines {
			lines = lines[panicStackSkipLines:]
		}
		e.Dict(
			"panic",
			zerolog.
				Dict().
				Any("content", recovered).
				Bytes("stack_traces", bytes.Join(lines, []byte("\n"))),
		)
	}
}
