package state

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/starford/navkit/internal/apperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode serializes s in the persisted layout.
func Encode(s *NavigationState) ([]byte, error) {
	if s == nil {
		return nil, apperr.PersistenceFailed("encode", apperr.InvalidParameters("nil state"))
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperr.PersistenceFailed("encode", err)
	}
	return data, nil
}

// Decode parses a document produced by Encode.
func Decode(data []byte) (*NavigationState, error) {
	if !jsoniter.ConfigFastest.Valid(data) {
		return nil, apperr.StateRestorationFailed("document is not valid JSON", nil)
	}
	var s NavigationState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperr.StateRestorationFailed("decode", err)
	}
	if s.TabStates == nil {
		s.TabStates = make(map[string]TabNavigationState)
	}
	if s.ModalStack == nil {
		s.ModalStack = []ModalDestination{}
	}
	for id, ts := range s.TabStates {
		if ts.TabID == "" {
			ts.TabID = id
		}
		if ts.TabID != id {
			return nil, apperr.StateRestorationFailed("tab "+id+" carries tabId "+ts.TabID, nil)
		}
		if ts.NavigationStack == nil {
			ts.NavigationStack = []RouteToken{}
		}
		s.TabStates[id] = ts
	}
	if s.CurrentTab != "" && !s.HasTab(s.CurrentTab) {
		return nil, apperr.StateRestorationFailed("current tab "+s.CurrentTab+" is not registered", nil)
	}
	return &s, nil
}
