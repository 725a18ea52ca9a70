/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package perrors

import "sync"

// ParlError is a thread-safe error container accumulating multiple
// errors into one chain.
//   - available for callers accumulating several failures; pshell's
//     CommandCore does not use it and keeps only the first pump error
type ParlError struct {
	lock sync.Mutex
	err  error
}

// AddError stores an additional error in the container. Thread-safe.
// A nil err is a no-op
func (p *ParlError) AddError(err error) {
	if err == nil {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	p.err = AppendError(p.err, err)
}

// GetError returns the accumulated error, or nil if none occurred
func (p *ParlError) GetError() (err error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.err
}

// joinedError is a minimal multi-error chain: Unwrap returns every
// joined error so errors.Is/As can traverse into each of them, while
// Error renders every message
type joinedError struct {
	errs []error
}

func (j *joinedError) Error() (s string) {
	for i, e := range j.errs {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return
}

func (j *joinedError) Unwrap() []error { return j.errs }

// AppendError combines err0 and err1 into a single error whose chain
// errors.Is/As can traverse into either original error.
//   - a nil operand is dropped; if both are nil, nil is returned
func AppendError(err0, err1 error) (err error) {
	if err0 == nil {
		return err1
	}
	if err1 == nil {
		return err0
	}
	if j, ok := err0.(*joinedError); ok {
		return &joinedError{errs: append(append([]error{}, j.errs...), err1)}
	}
	return &joinedError{errs: []error{err0, err1}}
}
