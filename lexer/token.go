// Package lexer tokenizes .plc source text ahead of the recursive-descent
// parser in package parser. It follows the same rune-scanning shape as
// the teacher's hand-rolled tokenizers: a peek/advance cursor over a
// []rune buffer, no external scanning library.
package lexer

import "github.com/rustplc/compiler/ast"

// TokenType enumerates the lexical categories of the .plc grammar.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIdent
	TokDuration // integer followed immediately by "ms"
	TokString   // double-quoted string literal
	TokNumber   // bare unsigned integer (used for bounds other than durations)

	TokLBrace // {
	TokRBrace // }
	TokLBracket
	TokRBracket
	TokLParen // (
	TokRParen // )
	TokColon
	TokComma
	TokArrow // ->
	TokDot
	TokEq  // ==
	TokGe  // >=
	TokGt  // >
	TokLe
	TokLt

	// keywords
	TokKwDevice
	TokKwSolenoidValve
	TokKwCylinder
	TokKwSensor
	TokKwMotor
	TokKwDigitalInput
	TokKwDigitalOutput
	TokKwSafety
	TokKwTiming
	TokKwCausality
	TokKwTask
	TokKwStep
	TokKwAction
	TokKwWait
	TokKwTimeout
	TokKwGoto
	TokKwOnComplete
	TokKwParallel
	TokKwRace
	TokKwBranch
	TokKwAllowIndefiniteWait
	TokKwUnreachable
	TokKwConflictsWith
	TokKwRequires
	TokKwMustCompleteWithin
	TokKwMustStartAfter
	TokKwReason
	TokKwTrue
	TokKwFalse
	TokKwNot
	TokKwAnd
	TokKwOr
	TokKwExtend
	TokKwRetract
	TokKwSet
	TokKwLog
	TokKwThen
)

var keywords = map[string]TokenType{
	"device":                TokKwDevice,
	"solenoid_valve":        TokKwSolenoidValve,
	"cylinder":              TokKwCylinder,
	"sensor":                TokKwSensor,
	"motor":                 TokKwMotor,
	"digital_input":         TokKwDigitalInput,
	"digital_output":        TokKwDigitalOutput,
	"safety":                TokKwSafety,
	"timing":                TokKwTiming,
	"causality":             TokKwCausality,
	"task":                  TokKwTask,
	"step":                  TokKwStep,
	"action":                TokKwAction,
	"wait":                  TokKwWait,
	"timeout":               TokKwTimeout,
	"goto":                  TokKwGoto,
	"on_complete":           TokKwOnComplete,
	"parallel":              TokKwParallel,
	"race":                  TokKwRace,
	"branch":                TokKwBranch,
	"allow_indefinite_wait": TokKwAllowIndefiniteWait,
	"unreachable":           TokKwUnreachable,
	"conflicts_with":        TokKwConflictsWith,
	"requires":              TokKwRequires,
	"must_complete_within":  TokKwMustCompleteWithin,
	"must_start_after":      TokKwMustStartAfter,
	"reason":                TokKwReason,
	"true":                  TokKwTrue,
	"false":                 TokKwFalse,
	"not":                   TokKwNot,
	"and":                   TokKwAnd,
	"or":                    TokKwOr,
	"extend":                TokKwExtend,
	"retract":               TokKwRetract,
	"set":                   TokKwSet,
	"log":                   TokKwLog,
	"then":                  TokKwThen,
}

// Token is one lexical unit plus its source location and, for literal
// tokens, its decoded value.
type Token struct {
	Type       TokenType
	Text       string // raw identifier/keyword text
	Str        string // decoded string literal body
	DurationMS uint32
	Number     uint64
	Loc        ast.Location
}
