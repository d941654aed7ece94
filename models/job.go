package models

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuting JobStatus = "executing"
	JobDone      JobStatus = "done"
	JobFailed    JobStatus = "failed"
)

// Job is one blocking device sequence delegated to the worker pool.
type Job struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`                // connect, pair, report, shell, ...
	DeviceID  string    `json:"device_id,omitempty"` // identity string
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

func (j *Job) Finished() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

// Event types pushed over the WebSocket.
const (
	EventJobUpdated         = "job.updated"
	EventDiscoveryCompleted = "discovery.completed"
	EventDeviceConnected    = "device.connected"
	EventDeviceDisconnected = "device.disconnected"
)

type Event struct {
	Type      string      `json:"type"`
	DeviceID  string      `json:"device_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type ConnectRequest struct {
	IP   string `json:"ip" binding:"required"`
	Port int    `json:"port" binding:"required"`
}

type PairRequest struct {
	IP   string `json:"ip" binding:"required"`
	Port int    `json:"port" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type PullRequest struct {
	Remote string `json:"remote" binding:"required"`
	Local  string `json:"local" binding:"required"`
}

type ShellRequest struct {
	Command string `json:"command" binding:"required"`
}

type ShellResult struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
}

type PullResult struct {
	Local string `json:"local"`
	Bytes int    `json:"bytes"`
}
