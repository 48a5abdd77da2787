package permissions

// Gate answers the two questions the engine asks before creating an event
// tap: is the process currently authorised to observe global input, and how
// does the user grant that authorisation.
type Gate interface {
	// Check reports current authorisation without prompting. No side effects.
	Check() bool
	// Request surfaces the OS consent flow. Asynchronous from the caller's
	// point of view; re-invoke Check later to observe the outcome.
	Request()
}

// NewGate returns the platform gate. Environment overrides
// (FNSOLO_ACCESSIBILITY) take precedence over the platform answer so that
// denied and granted states can be exercised in tests and CI.
func NewGate() Gate {
	return envGate{}
}

type envGate struct{}

func (envGate) Check() bool {
	if value, ok := lookupEnv("FNSOLO_ACCESSIBILITY"); ok {
		return interpretPermissionFlag("accessibility", value).Status == StatusGranted
	}
	return platformTrusted()
}

func (envGate) Request() {
	if _, ok := lookupEnv("FNSOLO_ACCESSIBILITY"); ok {
		return
	}
	platformRequestTrust()
}

// Func adapts check/request function literals to the Gate interface.
type Func struct {
	CheckFunc   func() bool
	RequestFunc func()
}

// Check calls the underlying function, defaulting to denied.
func (f Func) Check() bool {
	if f.CheckFunc == nil {
		return false
	}
	return f.CheckFunc()
}

// Request calls the underlying function if present.
func (f Func) Request() {
	if f.RequestFunc != nil {
		f.RequestFunc()
	}
}
