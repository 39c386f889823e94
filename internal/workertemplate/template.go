// Package workertemplate holds the WorkerTemplate value handed to the scheduler,
// the Builder applying fixed agent defaults and the descriptor parser for
// ConfigMap entries.
package workertemplate

import (
	"strings"
)

const (
	// DefaultContainerName is the container the scheduler attaches the agent process to.
	DefaultContainerName = "jnlp"
	// DefaultRemoteFS is the working directory of the agent process.
	DefaultRemoteFS = "/tmp"
	// DefaultArgs connects the agent back to the scheduler.
	DefaultArgs = "${computer.jnlpmac} ${computer.name}"
)

// WorkerTemplate describes one kind of ephemeral build agent.
type WorkerTemplate struct {
	// Unique key in the pool. Never contains colons.
	Name string `json:"name"`
	// Container image of the agent container.
	Image string `json:"image"`
	// Scheduler label matching jobs to this template.
	Label string `json:"label"`

	ContainerName   string `json:"containerName"`
	AlwaysPullImage bool   `json:"alwaysPullImage"`
	RemoteFS        string `json:"remoteFS"`
	ServiceAccount  string `json:"serviceAccount,omitempty"`
	Command         string `json:"command"`
	Args            string `json:"args"`

	InstanceCap  *int32            `json:"instanceCap,omitempty"`
	IdleMinutes  int32             `json:"idleMinutes,omitempty"`
	NodeSelector map[string]string `json:"nodeSelector,omitempty"`
	Env          []EnvVar          `json:"env,omitempty"`
}

// EnvVar is a plain key/value environment variable of the agent container.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SameImage reports whether the template has the given name and image.
func (t WorkerTemplate) SameImage(name, image string) bool {
	return t.Name == name && t.Image == image
}

// SanitizeName replaces characters the scheduler does not accept in node names.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, ":", ".")
}

// Names returns the names of the given templates in order.
func Names(templates []WorkerTemplate) []string {
	names := make([]string, 0, len(templates))
	for _, t := range templates {
		names = append(names, t.Name)
	}
	return names
}

func applyDefaults(t *WorkerTemplate) {
	if len(t.Label) == 0 {
		t.Label = t.Name
	}
	if len(t.ContainerName) == 0 {
		t.ContainerName = DefaultContainerName
	}
	if len(t.RemoteFS) == 0 {
		t.RemoteFS = DefaultRemoteFS
	}
}
