package theme

// Storage is a persistent key-value store. Every method may fail when the
// store is unavailable.
type Storage interface {
	// Get returns the value stored under key. ok is false when nothing is stored.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(key string) error
}

// SystemPreference reports the host's ambient color-scheme preference.
type SystemPreference interface {
	PrefersDark() bool
	// OnChange registers fn to be called whenever the preference changes.
	OnChange(fn func(prefersDark bool)) error
}

// Indicator is the presentation flag kept in sync with the theme.
type Indicator interface {
	SetDark(dark bool)
}

// Environment holds the host capabilities available to the controller.
// Storage and System must both be set for the host to count as available;
// a nil Indicator discards updates.
type Environment struct {
	Storage   Storage
	System    SystemPreference
	Indicator Indicator
}

func (e Environment) available() bool {
	return e.Storage != nil && e.System != nil
}

// StaticPreference is a system preference that never changes.
type StaticPreference struct {
	Dark bool
}

// PrefersDark returns the fixed preference.
func (p StaticPreference) PrefersDark() bool {
	return p.Dark
}

// OnChange accepts fn but never calls it.
func (p StaticPreference) OnChange(func(bool)) error {
	return nil
}

type nopIndicator struct{}

func (nopIndicator) SetDark(bool) {}
