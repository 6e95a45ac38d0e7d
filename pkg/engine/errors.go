package engine

import "fmt"

// ConfigError reports an invalid build configuration: a bad k, b,
// k_srp, leaf_size, or k_max < k. ReverseKMips also returns it for a
// query k outside [1, k_max].
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: config error on %s: %s", e.Field, e.Msg)
}

// IndexError reports a structural invariant violation caught at build
// time: a partitioner failing to cover every item, or a cone-tree
// build that cannot produce two children after retries. It is always
// fatal to the build.
type IndexError struct {
	Component string
	Msg       string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("engine: index error in %s: %s", e.Component, e.Msg)
}

// wrapIndexError tags an error surfaced by a lower layer (itemindex,
// userindex) as an IndexError without losing the original message.
func wrapIndexError(component string, err error) error {
	if err == nil {
		return nil
	}
	return &IndexError{Component: component, Msg: err.Error()}
}
