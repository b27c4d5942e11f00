// Package diag implements the core's diagnostic taxonomy: structured
// values carrying a stable code and typed parameters rather than ad-hoc
// format strings, formatted only at emission time.
package diag

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Severity distinguishes the three diagnostic classes the core emits.
type Severity string

const (
	Error       Severity = "ERROR"
	SyntaxError Severity = "SYNTAX_ERROR"
	Warning     Severity = "WARNING"
)

// Code is the exact message-catalogue constant named in spec §6.
type Code string

const (
	ErrorCannotCoerce      Code = "ERROR_CANNOT_COERCE"
	ErrorNoMonadic         Code = "ERROR_NO_MONADIC"
	ErrorNoDyadic          Code = "ERROR_NO_DYADIC"
	ErrorNoName            Code = "ERROR_NO_NAME"
	ErrorNoStruct          Code = "ERROR_NO_STRUCT"
	ErrorNoField           Code = "ERROR_NO_FIELD"
	ErrorNoRowOrProc       Code = "ERROR_NO_ROW_OR_PROC"
	ErrorNoMatrix          Code = "ERROR_NO_MATRIX"
	ErrorNoVector          Code = "ERROR_NO_VECTOR"
	ErrorNoFlexArgument    Code = "ERROR_NO_FLEX_ARGUMENT"
	ErrorIndexerNumber     Code = "ERROR_INDEXER_NUMBER"
	ErrorArgumentNumber    Code = "ERROR_ARGUMENT_NUMBER"
	ErrorInvalidOperand    Code = "ERROR_INVALID_OPERAND"
	ErrorUndeclaredTag     Code = "ERROR_UNDECLARED_TAG"
	ErrorNoUniqueMode      Code = "ERROR_NO_UNIQUE_MODE"
	ErrorNoComponent       Code = "ERROR_NO_COMPONENT"
	ErrorNoUnion           Code = "ERROR_NO_UNION"
	ErrorVacuum            Code = "ERROR_VACUUM"
	ErrorModeSpecification Code = "ERROR_MODE_SPECIFICATION"
	ErrorTransientName     Code = "ERROR_TRANSIENT_NAME"
	ErrorScopeDynamic      Code = "ERROR_SCOPE_DYNAMIC"
	ErrorStackOverflow     Code = "ERROR_STACK_OVERFLOW"

	WarningVoided               Code = "WARNING_VOIDED"
	WarningUnintended            Code = "WARNING_UNINTENDED"
	WarningHIP                  Code = "WARNING_HIP"
	WarningWideningNotPortable  Code = "WARNING_WIDENING_NOT_PORTABLE"
	WarningScopeStatic          Code = "WARNING_SCOPE_STATIC"
)

var messageTemplates = map[Code]string{
	ErrorCannotCoerce:          "cannot coerce mode %v to mode %v in a %v context",
	ErrorNoMonadic:             "no monadic operator %q taking operand of mode %v",
	ErrorNoDyadic:              "no dyadic operator %q taking operands of mode %v and %v",
	ErrorNoName:                "%v is not a name",
	ErrorNoStruct:              "%v is not a structured mode",
	ErrorNoField:               "mode %v has no field %q",
	ErrorNoRowOrProc:           "%v is neither a row nor a procedure mode",
	ErrorNoMatrix:              "%v is not a matrix mode",
	ErrorNoVector:              "%v is not a vector mode",
	ErrorNoFlexArgument:        "argument to FLEX %v must itself be a row mode",
	ErrorIndexerNumber:         "wrong number of indexers for mode %v",
	ErrorArgumentNumber:        "wrong number of arguments for mode %v",
	ErrorInvalidOperand:        "invalid operand mode %v",
	ErrorUndeclaredTag:         "tag %q has not been declared in this scope",
	ErrorNoUniqueMode:          "no unique mode can be determined for %q",
	ErrorNoComponent:           "%v has no such component",
	ErrorNoUnion:               "%v is not a united mode",
	ErrorVacuum:                "construct yields VACUUM, no mode can be assigned",
	ErrorModeSpecification:     "invalid mode specification",
	ErrorTransientName:         "transient name of mode %v may not be stored here",
	ErrorScopeDynamic:          "value of scope %v may not be assigned to a name of scope %v",
	ErrorStackOverflow:         "recursion depth exceeds the configured stack-overflow guard",
	WarningVoided:              "value of mode %v is voided",
	WarningUnintended:          "assignment of mode %v may not be intended",
	WarningHIP:                 "construct yields HIP",
	WarningWideningNotPortable: "implicit widening of a denotation from %v to %v is not portable",
	WarningScopeStatic:         "static analysis cannot exclude a scope violation here; runtime check inserted",
}

// Fix is an optional suggested fix, carried the way the AI-facing error
// encoder in the teacher's diagnostic package does.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Diagnostic is one structured diagnostic. Params are formatted into the
// message template only when Render is called, never at construction.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Params   []any    `json:"params,omitempty"`
	Fix      *Fix     `json:"fix,omitempty"`
}

// Render formats the diagnostic's message from its code's template and
// params.
func (d Diagnostic) Render() string {
	tmpl, ok := messageTemplates[d.Code]
	if !ok {
		return string(d.Code)
	}
	return fmt.Sprintf(tmpl, d.Params...)
}

// Encoded is the JSON-serializable form of a Diagnostic, mirroring the
// teacher's AI-first structured error encoding.
type Encoded struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Fix      Fix    `json:"fix"`
}

func (d Diagnostic) encode() Encoded {
	fix := Fix{}
	if d.Fix != nil {
		fix = *d.Fix
	}
	return Encoded{
		Severity: string(d.Severity),
		Code:     string(d.Code),
		Line:     d.Line,
		Column:   d.Column,
		Message:  d.Render(),
		Fix:      fix,
	}
}

// Sink collects a per-compilation diagnostic list, enforcing MAX_ERRORS
// suppression: after that many fatal (ERROR/SYNTAX_ERROR) diagnostics it
// stops recording new ones, but the caller keeps walking so the tree
// remains well-annotated for later phases.
type Sink struct {
	MaxErrors int
	list      []Diagnostic
	fatal     int
	Suppressed int
}

// NewSink creates a Sink with the given MAX_ERRORS ceiling. A non-positive
// value disables the ceiling.
func NewSink(maxErrors int) *Sink {
	return &Sink{MaxErrors: maxErrors}
}

// Emit records d, subject to MAX_ERRORS suppression for fatal severities.
// Warnings are never suppressed.
func (s *Sink) Emit(d Diagnostic) {
	if d.Severity != Warning && s.MaxErrors > 0 && s.fatal >= s.MaxErrors {
		s.Suppressed++
		return
	}
	if d.Severity != Warning {
		s.fatal++
	}
	s.list = append(s.list, d)
}

// Errorf is a convenience constructor-and-emit for fatal diagnostics.
func (s *Sink) Errorf(code Code, line, col int, params ...any) {
	s.Emit(Diagnostic{Severity: Error, Code: code, Line: line, Column: col, Params: params})
}

// Warnf is a convenience constructor-and-emit for warnings.
func (s *Sink) Warnf(code Code, line, col int, params ...any) {
	s.Emit(Diagnostic{Severity: Warning, Code: code, Line: line, Column: col, Params: params})
}

// List returns the accumulated diagnostics in emission order.
func (s *Sink) List() []Diagnostic {
	return s.list
}

// HasErrors reports whether any fatal diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	return s.fatal > 0
}

// MarshalJSON renders the sink's diagnostic list as a deterministic JSON
// document, with diagnostics ordered by line and then column, for
// reproducible AI-facing output.
func (s *Sink) MarshalJSON() ([]byte, error) {
	encoded := make([]Encoded, len(s.list))
	for i, d := range s.list {
		encoded[i] = d.encode()
	}
	sort.SliceStable(encoded, func(i, j int) bool {
		if encoded[i].Line != encoded[j].Line {
			return encoded[i].Line < encoded[j].Line
		}
		return encoded[i].Column < encoded[j].Column
	})
	return json.Marshal(struct {
		Diagnostics []Encoded `json:"diagnostics"`
		Suppressed  int       `json:"suppressed"`
	}{Diagnostics: encoded, Suppressed: s.Suppressed})
}
