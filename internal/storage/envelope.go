package storage

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/checksum"
	"github.com/starford/navkit/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const envelopeVersion = 1

// envelope wraps an encoded snapshot with a checksum so truncated or edited
// documents are detected on restore.
type envelope struct {
	Version  int                 `json:"version"`
	Checksum string              `json:"checksum"`
	State    jsoniter.RawMessage `json:"state"`
}

func seal(s *state.NavigationState) ([]byte, string, error) {
	doc, err := state.Encode(s)
	if err != nil {
		return nil, "", err
	}
	sum := checksum.Sum(doc)
	data, err := json.Marshal(envelope{Version: envelopeVersion, Checksum: sum, State: doc})
	if err != nil {
		return nil, "", apperr.PersistenceFailed("encode envelope", err)
	}
	return data, sum, nil
}

func open(data []byte) (*state.NavigationState, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, apperr.StateRestorationFailed("decode envelope", err)
	}
	if env.Version != envelopeVersion {
		return nil, apperr.StateRestorationFailed("unsupported envelope version", nil)
	}
	return verify(env.State, env.Checksum)
}

func verify(doc []byte, sum string) (*state.NavigationState, error) {
	if !checksum.Verify(doc, sum) {
		return nil, apperr.StateRestorationFailed("checksum mismatch", nil)
	}
	return state.Decode(doc)
}
