package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// checker is implemented by payloads with constraints beyond their JSON shape.
type checker interface {
	check() error
}

func (p *RunCompletedPayload) check() error {
	switch {
	case p.RunID == "":
		return errors.New("run_id is required")
	case p.IterationsUsed < 0 || p.FailedTools < 0:
		return errors.New("counts must not be negative")
	}
	return nil
}

func (p *RunStepPayload) check() error {
	switch {
	case p.RunID == "":
		return errors.New("run_id is required")
	case p.Iteration < 1:
		return fmt.Errorf("iteration %d is not positive", p.Iteration)
	}
	return nil
}

func (p *SearchRequestPayload) check() error {
	switch {
	case strings.TrimSpace(p.Query) == "":
		return errors.New("query is required")
	case p.Limit < 0:
		return errors.New("limit must not be negative")
	}
	return nil
}

// Validate decodes data into the payload type registered for subject and
// checks its constraints. Subjects without a payload type only need to be
// valid JSON.
func Validate(subject string, data []byte) error {
	var p checker
	switch {
	case subject == SubjectRunCompleted:
		p = &RunCompletedPayload{}
	case subject == SubjectRunStep:
		p = &RunStepPayload{}
	case strings.HasPrefix(subject, SubjectSearch+"."):
		p = &SearchRequestPayload{}
	default:
		if !json.Valid(data) {
			return fmt.Errorf("%s: invalid JSON", subject)
		}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("%s: decode payload: %w", subject, err)
	}
	if err := p.check(); err != nil {
		return fmt.Errorf("%s: %w", subject, err)
	}
	return nil
}
