package workertemplate

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"k8s.io/utils/pointer"
	"sigs.k8s.io/yaml"
)

const (
	// Root element written by the Jenkins Kubernetes plugin.
	pluginPodTemplateElement = "org.csanchez.jenkins.plugins.kubernetes.PodTemplate"
	podTemplateElement       = "podTemplate"
	// Kind of YAML/JSON descriptors.
	DescriptorKind = "WorkerTemplate"
)

var (
	ErrMalformedDescriptor = errors.New("malformed worker template descriptor")
	ErrNotWorkerTemplate   = errors.New("document is not a worker template")
)

type xmlPodTemplate struct {
	XMLName        xml.Name
	Name           string `xml:"name"`
	Label          string `xml:"label"`
	ServiceAccount string `xml:"serviceAccount"`
	InstanceCap    *int32 `xml:"instanceCap"`
	IdleMinutes    int32  `xml:"idleMinutes"`
	NodeSelector   string `xml:"nodeSelector"`
	RemoteFS       string `xml:"remoteFs"`
	// Single container form used by old plugin releases.
	Image           string `xml:"image"`
	AlwaysPullImage bool   `xml:"alwaysPullImage"`
	Command         string `xml:"command"`
	Args            string `xml:"args"`

	Containers struct {
		Items []xmlContainer `xml:",any"`
	} `xml:"containers"`
	EnvVars struct {
		Items []xmlEnvVar `xml:",any"`
	} `xml:"envVars"`
}

type xmlContainer struct {
	Name            string `xml:"name"`
	Image           string `xml:"image"`
	AlwaysPullImage bool   `xml:"alwaysPullImage"`
	WorkingDir      string `xml:"workingDir"`
	Command         string `xml:"command"`
	Args            string `xml:"args"`
}

type xmlEnvVar struct {
	Key   string `xml:"key"`
	Value string `xml:"value"`
}

type yamlDescriptor struct {
	Kind string `json:"kind"`
	WorkerTemplate
}

// Parse deserializes a worker template descriptor.
// Documents starting with '<' are read as Jenkins Kubernetes plugin pod template XML,
// everything else as YAML or JSON with kind WorkerTemplate. Unknown fields are ignored.
func Parse(raw string) (WorkerTemplate, error) {
	doc := strings.TrimSpace(raw)
	if len(doc) == 0 {
		return WorkerTemplate{}, fmt.Errorf("%w: empty document", ErrMalformedDescriptor)
	}

	var (
		t   WorkerTemplate
		err error
	)
	if strings.HasPrefix(doc, "<") {
		t, err = parseXML(doc)
	} else {
		t, err = parseYAML(doc)
	}
	if err != nil {
		return WorkerTemplate{}, err
	}

	if len(t.Name) == 0 {
		return WorkerTemplate{}, ErrEmptyName
	}
	if len(t.Image) == 0 {
		return WorkerTemplate{}, fmt.Errorf("%w: %s", ErrEmptyImage, t.Name)
	}
	applyDefaults(&t)
	return t, nil
}

func parseXML(doc string) (WorkerTemplate, error) {
	pt := &xmlPodTemplate{}
	if err := xml.Unmarshal([]byte(doc), pt); err != nil {
		return WorkerTemplate{}, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	switch pt.XMLName.Local {
	case pluginPodTemplateElement, podTemplateElement:
	default:
		return WorkerTemplate{}, fmt.Errorf("%w: root element %q", ErrNotWorkerTemplate, pt.XMLName.Local)
	}

	t := WorkerTemplate{
		Name:            pt.Name,
		Label:           pt.Label,
		ServiceAccount:  pt.ServiceAccount,
		IdleMinutes:     pt.IdleMinutes,
		NodeSelector:    parseNodeSelector(pt.NodeSelector),
		RemoteFS:        pt.RemoteFS,
		Image:           pt.Image,
		AlwaysPullImage: pt.AlwaysPullImage,
		Command:         pt.Command,
		Args:            pt.Args,
	}
	if pt.InstanceCap != nil {
		t.InstanceCap = pointer.Int32(*pt.InstanceCap)
	}

	// The first container is the one the agent runs in.
	if len(pt.Containers.Items) > 0 {
		c := pt.Containers.Items[0]
		t.ContainerName = c.Name
		t.Image = c.Image
		t.AlwaysPullImage = c.AlwaysPullImage
		t.Command = c.Command
		t.Args = c.Args
		if len(c.WorkingDir) > 0 {
			t.RemoteFS = c.WorkingDir
		}
	}

	for _, env := range pt.EnvVars.Items {
		if len(env.Key) == 0 {
			continue
		}
		t.Env = append(t.Env, EnvVar{Key: env.Key, Value: env.Value})
	}
	return t, nil
}

func parseYAML(doc string) (WorkerTemplate, error) {
	d := &yamlDescriptor{}
	if err := yaml.Unmarshal([]byte(doc), d); err != nil {
		return WorkerTemplate{}, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	if d.Kind != DescriptorKind {
		return WorkerTemplate{}, fmt.Errorf("%w: kind %q", ErrNotWorkerTemplate, d.Kind)
	}
	return d.WorkerTemplate, nil
}

// parseNodeSelector reads the plugin's "key=value,key2=value2" notation.
func parseNodeSelector(s string) map[string]string {
	var selector map[string]string
	for _, pair := range strings.Split(s, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || len(key) == 0 {
			continue
		}
		if selector == nil {
			selector = map[string]string{}
		}
		selector[key] = value
	}
	return selector
}
