package model

import "fmt"

// PredictionError reports that an instance cannot be classified, for example
// because a required feature is absent. It is recoverable: other instances
// are unaffected.
type PredictionError struct {
	Pipeline string
	Feature  string
	Msg      string
}

func (e *PredictionError) Error() string {
	switch {
	case e.Pipeline != "" && e.Feature != "":
		return fmt.Sprintf("%s: feature %s: %s", e.Pipeline, e.Feature, e.Msg)
	case e.Feature != "":
		return fmt.Sprintf("feature %s: %s", e.Feature, e.Msg)
	case e.Pipeline != "":
		return fmt.Sprintf("%s: %s", e.Pipeline, e.Msg)
	}
	return e.Msg
}
