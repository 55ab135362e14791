package global

import (
	"sync"

	"github.com/caarlos0/env/v8"
	"github.com/pkg/errors"
)

var (
	envCfg     *EnvCfg
	envCfgOnce sync.Once
)

type EnvCfg struct {
	Test bool `env:"KELP_TEST"  envDefault:"false"`
	Log  struct {
		Level string `env:"KELP_LOG_LEVEL" envDefault:"info"`
	}
}

func GetEnvCfg() *EnvCfg {
	envCfgOnce.Do(func() {
		envCfg = &EnvCfg{}
		if err := env.Parse(envCfg); err != nil {
			panic(errors.Wrap(err, "parse env config"))
		}
	})
	return envCfg
}
