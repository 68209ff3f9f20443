package scope

import "fmt"

// ModuleContext is the root context of a module.
type ModuleContext struct {
	root
	filename string
	lambdas  int
}

func NewModuleContext(name, codeName, filename string, global *GlobalContext) *ModuleContext {
	return &ModuleContext{root: newRoot(global, name, codeName), filename: filename}
}

func (m *ModuleContext) String() string { return fmt.Sprintf("<ModuleContext for module %s>", m.name) }

func (m *ModuleContext) Name() string              { return m.name }
func (m *ModuleContext) CodeName() string          { return m.codeName }
func (m *ModuleContext) Filename() string          { return m.filename }
func (m *ModuleContext) TracebackName() string     { return "<module>" }
func (m *ModuleContext) TracebackFilename() string { return m.filename }

func (m *ModuleContext) AllocateLambdaIdentifier() string {
	m.lambdas++
	return fmt.Sprintf("_python_modulelambda_%d_%s", m.lambdas, m.codeName)
}

// PackageContext is the root context of a package. Nested code of the
// package's __init__ registers here like in a module.
type PackageContext struct {
	root
	lambdas int
}

func NewPackageContext(name string, global *GlobalContext) *PackageContext {
	return &PackageContext{root: newRoot(global, name, packageCodeName(name))}
}

func (p *PackageContext) String() string { return fmt.Sprintf("<PackageContext for package %s>", p.name) }

func (p *PackageContext) Name() string              { return p.name }
func (p *PackageContext) TracebackFilename() string { return "" }

func (p *PackageContext) AllocateLambdaIdentifier() string {
	p.lambdas++
	return fmt.Sprintf("_python_packagelambda_%d_%s", p.lambdas, p.codeName)
}

func packageCodeName(name string) string {
	out := []byte("package_")
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
