package workertemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/pointer"
)

const pluginPodTemplateXML = `<org.csanchez.jenkins.plugins.kubernetes.PodTemplate>
  <inheritFrom></inheritFrom>
  <name>builder</name>
  <instanceCap>5</instanceCap>
  <idleMinutes>10</idleMinutes>
  <label>builder java</label>
  <serviceAccount>jenkins</serviceAccount>
  <nodeSelector>kubernetes.io/os=linux, node-role=ci</nodeSelector>
  <volumes/>
  <containers>
    <org.csanchez.jenkins.plugins.kubernetes.ContainerTemplate>
      <name>jnlp</name>
      <image>imagestreamtag:ci/builder:latest</image>
      <privileged>false</privileged>
      <alwaysPullImage>true</alwaysPullImage>
      <workingDir>/home/jenkins</workingDir>
      <command></command>
      <args>${computer.jnlpmac} ${computer.name}</args>
      <ttyEnabled>false</ttyEnabled>
    </org.csanchez.jenkins.plugins.kubernetes.ContainerTemplate>
  </containers>
  <envVars>
    <org.csanchez.jenkins.plugins.kubernetes.model.KeyValueEnvVar>
      <key>MAVEN_OPTS</key>
      <value>-Xmx1g</value>
    </org.csanchez.jenkins.plugins.kubernetes.model.KeyValueEnvVar>
  </envVars>
  <annotations/>
</org.csanchez.jenkins.plugins.kubernetes.PodTemplate>`

func TestParse_PluginXML(t *testing.T) {
	t.Parallel()

	tmpl, err := Parse(pluginPodTemplateXML)
	require.NoError(t, err)
	assert.Equal(t, WorkerTemplate{
		Name:            "builder",
		Image:           "imagestreamtag:ci/builder:latest",
		Label:           "builder java",
		ContainerName:   "jnlp",
		AlwaysPullImage: true,
		RemoteFS:        "/home/jenkins",
		ServiceAccount:  "jenkins",
		Args:            "${computer.jnlpmac} ${computer.name}",
		InstanceCap:     pointer.Int32(5),
		IdleMinutes:     10,
		NodeSelector: map[string]string{
			"kubernetes.io/os": "linux",
			"node-role":        "ci",
		},
		Env: []EnvVar{{Key: "MAVEN_OPTS", Value: "-Xmx1g"}},
	}, tmpl)
}

func TestParse_ShortXML(t *testing.T) {
	t.Parallel()

	tmpl, err := Parse(`<?xml version="1.0"?>
<podTemplate><name>go</name><image>quay.io/ci/go:1.21</image></podTemplate>`)
	require.NoError(t, err)
	assert.Equal(t, "go", tmpl.Name)
	assert.Equal(t, "go", tmpl.Label)
	assert.Equal(t, "quay.io/ci/go:1.21", tmpl.Image)
	assert.Equal(t, DefaultContainerName, tmpl.ContainerName)
	assert.Equal(t, DefaultRemoteFS, tmpl.RemoteFS)
	assert.Nil(t, tmpl.InstanceCap)
}

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	tmpl, err := Parse(`
kind: WorkerTemplate
name: python
image: quay.io/ci/python:3.11
label: python
alwaysPullImage: true
someFutureField: ignored
nodeSelector:
  kubernetes.io/arch: amd64
`)
	require.NoError(t, err)
	assert.Equal(t, "python", tmpl.Name)
	assert.Equal(t, "quay.io/ci/python:3.11", tmpl.Image)
	assert.True(t, tmpl.AlwaysPullImage)
	assert.Equal(t, map[string]string{"kubernetes.io/arch": "amd64"}, tmpl.NodeSelector)
	assert.Equal(t, DefaultContainerName, tmpl.ContainerName)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{
			name: "empty",
			raw:  "  \n",
			err:  ErrMalformedDescriptor,
		},
		{
			name: "truncated xml",
			raw:  "<podTemplate><name>broken",
			err:  ErrMalformedDescriptor,
		},
		{
			name: "other xml document",
			raw:  "<hudson.model.FreeStyleProject><name>x</name></hudson.model.FreeStyleProject>",
			err:  ErrNotWorkerTemplate,
		},
		{
			name: "yaml of another kind",
			raw:  "kind: Pod\nname: x\nimage: y\n",
			err:  ErrNotWorkerTemplate,
		},
		{
			name: "yaml scalar",
			raw:  "just some text",
			err:  ErrMalformedDescriptor,
		},
		{
			name: "missing name",
			raw:  "<podTemplate><image>quay.io/ci/go:1.21</image></podTemplate>",
			err:  ErrEmptyName,
		},
		{
			name: "missing image",
			raw:  "<podTemplate><name>go</name></podTemplate>",
			err:  ErrEmptyImage,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(test.raw)
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestParseNodeSelector(t *testing.T) {
	t.Parallel()

	assert.Nil(t, parseNodeSelector(""))
	assert.Nil(t, parseNodeSelector("novalue, =x"))
	assert.Equal(t, map[string]string{"a": "1", "b": ""}, parseNodeSelector("a=1,b="))
}
