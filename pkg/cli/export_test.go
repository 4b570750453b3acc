package cli

import (
	"io"

	"github.com/secmon-lab/contactbook/pkg/usecase"
)

var (
	FindEnvFile         = findEnvFile
	BuildScanOption     = buildScanOption
	DanglingRelatedKeys = danglingRelatedKeys
)

func NewTerminalEmitterForTest(w io.Writer) usecase.Emitter {
	return newTerminalEmitter(w)
}

func (r relatedRef) String() string {
	return string(r.from) + "->" + string(r.to)
}
