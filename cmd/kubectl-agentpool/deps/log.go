package deps

import (
	"flag"
	"sync"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"agentpool.run/cmd/kubectl-agentpool/rootcmd"
)

// ProvideLogFactory binds the zap flags to the go flag set, which the root command exposes.
// Only errors are logged unless --zap-log-level is raised.
func ProvideLogFactory(streams rootcmd.IOStreams) LogFactory {
	opts := &zap.Options{
		Development:     true,
		DestWriter:      streams.ErrOut,
		Level:           zapcore.ErrorLevel,
		StacktraceLevel: zapcore.PanicLevel,
	}
	opts.BindFlags(flag.CommandLine)

	return &ZapLogFactory{
		opts: opts,
	}
}

type LogFactory interface {
	Logger() logr.Logger
}

// ZapLogFactory builds the logger once flags are parsed.
type ZapLogFactory struct {
	opts *zap.Options
	once sync.Once
	log  logr.Logger
}

func (f *ZapLogFactory) Logger() logr.Logger {
	f.once.Do(func() {
		f.log = zap.New(zap.UseFlagOptions(f.opts)).WithName("kubectl-agentpool")
	})
	return f.log
}
