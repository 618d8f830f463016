// Package factory is a small generic registry that instantiates modules
// from configuration. A module is a type name plus a map of raw settings;
// each factory decodes the settings into its own struct.
//
//	reg := factory.NewRegistry[regressor.Regressor]("regressor")
//	reg.Register("constant", func(conf map[string]any) (regressor.Regressor, error) {
//	    var c struct{ Value float64 `json:"value"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return regressor.Constant(c.Value), nil
//	})
//	r, err := reg.Create(factory.ModuleConfig{Type: "constant", Conf: map[string]any{"value": 1.5}})
package factory
