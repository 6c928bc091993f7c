package event

import "encoding/json"

// DecodePayload returns the payload as T. In-process publishers hand over the
// typed struct directly; payloads that went through JSON (dead letters,
// replays) arrive as maps and are converted with a JSON round trip.
func DecodePayload[T any](input interface{}) (T, error) {
	if v, ok := input.(T); ok {
		return v, nil
	}
	if p, ok := input.(*T); ok && p != nil {
		return *p, nil
	}
	var result T
	data, err := json.Marshal(input)
	if err != nil {
		return result, err
	}
	return result, json.Unmarshal(data, &result)
}
