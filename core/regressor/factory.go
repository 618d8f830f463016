package regressor

import "github.com/kilianp07/bikeprice/core/factory"

var registry = factory.NewRegistry[Regressor]("regressor")

func init() {
	_ = Register("constant", func(conf map[string]any) (Regressor, error) {
		var c struct {
			Value float64 `json:"value"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return Constant(c.Value), nil
	})
}

// Register adds a regressor factory identified by name.
func Register(name string, f factory.Factory[Regressor]) error {
	return registry.Register(name, f)
}

// New builds the regressor described by cfg.
func New(cfg factory.ModuleConfig) (Regressor, error) {
	return registry.Create(cfg)
}

// Types lists the registered regressor types.
func Types() []string { return registry.Types() }
