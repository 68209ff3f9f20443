package scope

import (
	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/constpool"
	"github.com/xplshn/gpyc/pkg/ident"
)

// GlobalContext owns the constant pool of a compile invocation. Module and
// package contexts hold a reference to it; it outlives all of them.
type GlobalContext struct {
	cfg  *config.Config
	pool *constpool.Pool

	// Symbols of the constants every unit needs.
	ConstTupleEmpty  string
	ConstStringEmpty string
	ConstBoolTrue    string
	ConstBoolFalse   string
	ConstModule      string
	ConstClass       string
	ConstDict        string
	ConstDoc         string
	ConstFile        string
	ConstEnter       string
	ConstExit        string
}

func NewGlobalContext(cfg *config.Config) (*GlobalContext, error) {
	g := &GlobalContext{cfg: cfg, pool: constpool.New(cfg)}

	preset := []struct {
		v   constant.Value
		dst *string
	}{
		{constant.Tuple{}, &g.ConstTupleEmpty},
		{constant.Str(""), &g.ConstStringEmpty},
		{constant.Bool(true), &g.ConstBoolTrue},
		{constant.Bool(false), &g.ConstBoolFalse},
		{constant.Str("__module__"), &g.ConstModule},
		{constant.Str("__class__"), &g.ConstClass},
		{constant.Str("__dict__"), &g.ConstDict},
		{constant.Str("__doc__"), &g.ConstDoc},
		{constant.Str("__file__"), &g.ConstFile},
		{constant.Str("__enter__"), &g.ConstEnter},
		{constant.Str("__exit__"), &g.ConstExit},
	}
	for _, p := range preset {
		id, err := g.pool.Handle(p.v)
		if err != nil {
			return nil, err
		}
		*p.dst = id.Code()
	}
	return g, nil
}

// ConstantHandle returns the pooled identifier for v.
func (g *GlobalContext) ConstantHandle(v constant.Value) (ident.Identifier, error) {
	return g.pool.Handle(v)
}

func (g *GlobalContext) Pool() *constpool.Pool  { return g.pool }
func (g *GlobalContext) Config() *config.Config { return g.cfg }
