package modules

import (
	"github.com/go-faster/errors"

	"github.com/chathub-dev/chathub/pkg/application"
)

// Load registers every module against the application in order.
func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return errors.Wrapf(err, "register module %s", module.Name())
		}
	}
	return nil
}
