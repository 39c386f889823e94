package deps

import (
	"k8s.io/apimachinery/pkg/runtime"

	internalcmd "agentpool.run/internal/cmd"
)

func ProvideScheme() (*runtime.Scheme, error) {
	return internalcmd.NewScheme()
}
