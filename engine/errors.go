package engine

import "fmt"

// ConnectivityError means a collaborator failed its startup check. It is
// fatal: the engine never starts polling with a broken dependency.
type ConnectivityError struct {
	Service string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s is not reachable: %s", e.Service, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failed snapshot load or save.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %s", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
