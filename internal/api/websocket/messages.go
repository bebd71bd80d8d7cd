package websocket

import (
	"time"

	"github.com/printemu/printemu/internal/gcode"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Machine state messages
	MessageTypeMachineState MessageType = "machine_state"

	// Job messages
	MessageTypeJobProgress MessageType = "job_progress"

	// File store messages
	MessageTypeFileAdded   MessageType = "file_added"
	MessageTypeFileRemoved MessageType = "file_removed"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// MachineStateData represents machine state change data
type MachineStateData struct {
	State    string `json:"state"`
	Previous string `json:"previous_state"`
}

// JobProgressData represents progress along the active job
type JobProgressData struct {
	JobID      string      `json:"job_id"`
	File       string      `json:"file"`
	Completion float64     `json:"completion"`
	Offset     int64       `json:"offset"`
	Head       gcode.Point `json:"head"`
}

// FileEventData represents a change to the stored file set
type FileEventData struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Helper functions for creating specific message types

func NewMachineStateMessage(newState, previousState string) Message {
	return NewMessage(MessageTypeMachineState, MachineStateData{
		State:    newState,
		Previous: previousState,
	})
}

func NewJobProgressMessage(jobID, file string, completion float64, offset int64, head gcode.Point) Message {
	return NewMessage(MessageTypeJobProgress, JobProgressData{
		JobID:      jobID,
		File:       file,
		Completion: completion,
		Offset:     offset,
		Head:       head,
	})
}

func NewFileMessage(msgType MessageType, name string, size int64) Message {
	return NewMessage(msgType, FileEventData{Name: name, Size: size})
}
