package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes the whole list as the JSON array stored under the tasks key.
func Encode(list []Task) ([]byte, error) {
	if list == nil {
		list = []Task{}
	}
	return json.Marshal(list)
}

// Decode parses a stored blob. Empty input is an empty list.
func Decode(data []byte) ([]Task, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Task{}, nil
	}
	var list []Task
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].DueDate != nil && list[i].DueDate.IsZero() {
			list[i].DueDate = nil
		}
		if list[i].Priority == 0 {
			list[i].Priority = PriorityMedium
		}
		if list[i].ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
	}
	if list == nil {
		list = []Task{}
	}
	return list, nil
}
