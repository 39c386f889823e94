// Package constants contains various constant string values for the project.
// They live in a separate package to avoid circular dependencies between packages that contain functional code.
package constants

const (
	// AgentRoleLabel marks ConfigMaps, ImageStreams and ImageStreamTags that declare build agents.
	AgentRoleLabel = "role"
	// AgentRoleValue is the value of AgentRoleLabel that marks a build agent declaration.
	AgentRoleValue = "jenkins-agent"
	// LegacyAgentRoleValue is still honored for declarations written against older releases.
	LegacyAgentRoleValue = "jenkins-slave"
	// AgentLabelKey overrides the scheduler label of an ImageStream derived template.
	AgentLabelKey = "agent-label"
	// LegacyAgentLabelKey is the pre-rename spelling of AgentLabelKey.
	LegacyAgentLabelKey = "slave-label"
	// ImageStreamTagPrefix marks a descriptor image that has to be resolved through an ImageStreamTag.
	ImageStreamTagPrefix = "imagestreamtag:"
	// HostnameEnvironmentVariable names the pod the manager runs in.
	HostnameEnvironmentVariable = "HOSTNAME"
	// NamespaceEnvironmentVariable is the downward API variable carrying the manager namespace.
	NamespaceEnvironmentVariable = "POD_NAMESPACE"
	// ServiceAccountNamespaceFile is read when no namespace was configured explicitly.
	ServiceAccountNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
)

// AgentMarkerValues lists all values of AgentRoleLabel that mark a build agent declaration.
func AgentMarkerValues() []string {
	return []string{AgentRoleValue, LegacyAgentRoleValue}
}
