package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{
			name:     "AgentRoleLabel",
			constant: AgentRoleLabel,
			expected: "role",
		},
		{
			name:     "LegacyAgentRoleValue",
			constant: LegacyAgentRoleValue,
			expected: "jenkins-slave",
		},
		{
			name:     "LegacyAgentLabelKey",
			constant: LegacyAgentLabelKey,
			expected: "slave-label",
		},
		{
			name:     "ImageStreamTagPrefix",
			constant: ImageStreamTagPrefix,
			expected: "imagestreamtag:",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, test.constant)
		})
	}
}

func TestAgentMarkerValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"jenkins-agent", "jenkins-slave"}, AgentMarkerValues())
}
