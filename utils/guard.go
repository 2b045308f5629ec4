package utils

// Guard runs cleanup when a function that creates a resource, such as an output file, fails part
// way through:
//
//	guard := NewGuard(func() { os.Remove(path) })
//	defer guard.OnFail()
//	if err != nil { return err }
//	guard.Success()
//	return nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless Success was called first.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success declares the function succeeded and the failure cleanup does not need to run.
func (guard *Guard) Success() {
	guard.success = true
}
