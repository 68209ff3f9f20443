package codegen

import (
	"bytes"

	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/ir"
)

// Backend turns a lowered unit into target assembly.
type Backend interface {
	// GenerateIR returns the textual intermediate language the backend
	// feeds to its assembler.
	GenerateIR(prog *ir.Program, cfg *config.Config) (string, error)
	// Generate produces the target assembly.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}
