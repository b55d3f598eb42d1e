package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/claimgraph/pkg/align"

	"github.com/go-playground/validator"
)

// ErrInvalidMessage marks messages that can never be processed. They skip
// the retry queue.
var ErrInvalidMessage = errors.New("invalid message")

// BuildMessage asks the worker to build the graph of one run. Keys are
// object keys in the configured bucket. SentencesKey is optional.
type BuildMessage struct {
	RunID        string `json:"run_id" validate:"required"`
	TriplesKey   string `json:"triples_key" validate:"required"`
	SentencesKey string `json:"sentences_key,omitempty"`
	AlignPolicy  string `json:"align_policy,omitempty"`
}

var validate = validator.New()

// Validate checks required fields and the align policy.
func (m BuildMessage) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if _, err := align.ParsePolicy(m.AlignPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// Encode validates m and returns its JSON form.
func (m BuildMessage) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// DecodeBuildMessage parses and validates a message body.
func DecodeBuildMessage(body []byte) (BuildMessage, error) {
	var m BuildMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return BuildMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := m.Validate(); err != nil {
		return BuildMessage{}, err
	}
	return m, nil
}
