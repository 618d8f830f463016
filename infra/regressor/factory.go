package regressor

import (
	"fmt"

	"github.com/kilianp07/bikeprice/core/factory"
	coreregressor "github.com/kilianp07/bikeprice/core/regressor"
)

type fileConf struct {
	Path string `json:"path"`
}

func decodePath(conf map[string]any, kind string) (string, error) {
	var c fileConf
	if err := factory.Decode(conf, &c); err != nil {
		return "", err
	}
	if c.Path == "" {
		return "", fmt.Errorf("%s model path is required", kind)
	}
	return c.Path, nil
}

// init registers the built-in regressors.
func init() {
	_ = coreregressor.Register("linear", func(conf map[string]any) (coreregressor.Regressor, error) {
		path, err := decodePath(conf, "linear")
		if err != nil {
			return nil, err
		}
		return LoadLinear(path)
	})

	_ = coreregressor.Register("forest", func(conf map[string]any) (coreregressor.Regressor, error) {
		path, err := decodePath(conf, "forest")
		if err != nil {
			return nil, err
		}
		return LoadForest(path)
	})

	_ = coreregressor.Register("remote", func(conf map[string]any) (coreregressor.Regressor, error) {
		var c RemoteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRemoteModel(c)
	})
}
