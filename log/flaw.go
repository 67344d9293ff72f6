package log

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
)

// Flaw expands err into structured fields when it carries a *flaw.Flaw anywhere in its
// chain, and falls back to zerolog's plain error field otherwise.
func Flaw(err error) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		flawErr := new(flaw.Flaw)
		if !errors.As(err, &flawErr) {
			e.Err(err)
			return
		}

		e.
			Str("error_summary", err.Error()).
			Dict(
				"error",
				zerolog.
					Dict().
					Str("message", flawErr.Inner).
					Str("type_name", flawErr.InnerType).
					Str("syntax_representation", flawErr.InnerSyntaxRepr),
			).
			Array("records", flawRecords(flawErr)).
			Array("joined_errors", flawJoinedErrors(flawErr)).
			Array("stack_traces", flawStackTraces(flawErr))
	}
}

func flawRecords(f *flaw.Flaw) *zerolog.Array {
	out := zerolog.Arr()
	for _, v := range f.Records {
		record := zerolog.Dict().Str("function", v.Function)
		b, err := json.MarshalWithOption(v.Payload, json.UnorderedMap(), json.DisableNormalizeUTF8(), json.DisableHTMLEscape())
		if nil != err {
			record.Dict("payload", zerolog.Dict().Str("error", err.Error()).Str("raw", fmt.Sprintf("%#+v", v.Payload)))
		} else {
			record.RawJSON("payload", b)
		}
		out.Dict(record)
	}
	return out
}

func flawJoinedErrors(f *flaw.Flaw) *zerolog.Array {
	out := zerolog.Arr()
	for _, v := range f.JoinedErrors {
		d := zerolog.
			Dict().
			Dict(
				"error",
				zerolog.
					Dict().
					Str("message", v.Message).
					Str("type_name", v.TypeName).
					Str("syntax_representation", v.SyntaxRepr),
			)
		if st := v.CallerStackTrace; nil != st {
			d.Dict(
				"caller_stack_trace",
				zerolog.
					Dict().
					Str("location", fmt.Sprintf("%s:%d", st.File, st.Line)).
					Str("function", st.Function),
			)
		}
		out.Dict(d)
	}
	return out
}

func flawStackTraces(f *flaw.Flaw) *zerolog.Array {
	out := zerolog.Arr()
	for _, v := range f.StackTrace {
		out.Dict(zerolog.Dict().Str("location", fmt.Sprintf("%s:%d", v.File, v.Line)).Str("function", v.Function))
	}
	return out
}
