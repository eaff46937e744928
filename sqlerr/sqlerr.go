// Package sqlerr defines the error classes raised by the relay client.
//
// The classes form a tree rooted at Error (plus the unused Warning). An
// *Error matches, through errors.Is, the sentinel of its own class and the
// sentinels of every ancestor, so callers can test as broadly or as narrowly
// as they need:
//
//	if errors.Is(err, sqlerr.ErrDatabase) { ... } // relay-side failure
//	if errors.Is(err, sqlerr.ErrInternal) { ... } // closed cursor
package sqlerr

import "errors"

// Class identifies a node of the error hierarchy.
type Class int

const (
	ClassError Class = iota
	ClassWarning
	ClassInterface
	ClassInternal
	ClassDatabase
	ClassOperational
	ClassProgramming
	ClassIntegrity
	ClassData
	ClassNotSupported
)

var classNames = map[Class]string{
	ClassError:        "Error",
	ClassWarning:      "Warning",
	ClassInterface:    "InterfaceError",
	ClassInternal:     "InternalError",
	ClassDatabase:     "DatabaseError",
	ClassOperational:  "OperationalError",
	ClassProgramming:  "ProgrammingError",
	ClassIntegrity:    "IntegrityError",
	ClassData:         "DataError",
	ClassNotSupported: "NotSupportedError",
}

// parents maps each class to its direct ancestor. Error and Warning are roots.
var parents = map[Class]Class{
	ClassInterface:    ClassError,
	ClassInternal:     ClassInterface,
	ClassDatabase:     ClassError,
	ClassOperational:  ClassDatabase,
	ClassProgramming:  ClassDatabase,
	ClassIntegrity:    ClassDatabase,
	ClassData:         ClassDatabase,
	ClassNotSupported: ClassDatabase,
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "UnknownError"
}

// Is reports whether c is target or descends from it.
func (c Class) Is(target Class) bool {
	for {
		if c == target {
			return true
		}
		parent, ok := parents[c]
		if !ok {
			return false
		}
		c = parent
	}
}

// Sentinels, one per class. Compare with errors.Is.
var (
	ErrError        = sentinel(ClassError)
	ErrWarning      = sentinel(ClassWarning)
	ErrInterface    = sentinel(ClassInterface)
	ErrInternal     = sentinel(ClassInternal)
	ErrDatabase     = sentinel(ClassDatabase)
	ErrOperational  = sentinel(ClassOperational)
	ErrProgramming  = sentinel(ClassProgramming)
	ErrIntegrity    = sentinel(ClassIntegrity)
	ErrData         = sentinel(ClassData)
	ErrNotSupported = sentinel(ClassNotSupported)
)

func sentinel(c Class) *Error {
	return &Error{Class: c, Message: c.String(), sentinel: true}
}

// Error is a classified failure with a human readable message and an
// optional cause.
type Error struct {
	Class   Class
	Message string
	Err     error

	sentinel bool
}

// New returns an error of class c carrying msg verbatim.
func New(c Class, msg string) *Error {
	return &Error{Class: c, Message: msg}
}

// Wrap returns an error of class c carrying msg and keeping err as its cause.
func Wrap(c Class, msg string, err error) *Error {
	return &Error{Class: c, Message: msg, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of e's class or of any ancestor class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel {
		return false
	}
	return e.Class.Is(t.Class)
}

// ClassOf returns the class of the first *Error in err's chain.
func ClassOf(err error) (Class, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Class, true
	}
	return 0, false
}

// Convenience constructors for the classes the client raises.

func Interface(msg string) *Error   { return New(ClassInterface, msg) }
func Internal(msg string) *Error    { return New(ClassInternal, msg) }
func Database(msg string) *Error    { return New(ClassDatabase, msg) }
func Operational(msg string) *Error { return New(ClassOperational, msg) }
func Programming(msg string) *Error { return New(ClassProgramming, msg) }
func Data(msg string) *Error        { return New(ClassData, msg) }
func NotSupported(msg string) *Error {
	return New(ClassNotSupported, msg)
}
