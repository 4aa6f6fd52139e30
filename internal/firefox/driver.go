package firefox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/raysh454/foxdriver/internal/logging"
	"github.com/tebeka/selenium"
)

// Driver is a WebDriver session that also owns the geckodriver process and
// any temporary profile created for it.
type Driver struct {
	selenium.WebDriver

	stop    func() error
	profile *Profile
	logger  logging.Logger

	once    sync.Once
	quitErr error
}

// Quit ends the session, stops geckodriver and removes the temp profile.
// Later calls return the first result.
func (d *Driver) Quit() error {
	d.once.Do(func() {
		var errList []error
		if d.WebDriver != nil {
			if err := d.WebDriver.Quit(); err != nil {
				errList = append(errList, fmt.Errorf("quit session: %w", err))
			}
		}
		if d.stop != nil {
			if err := d.stop(); err != nil {
				errList = append(errList, fmt.Errorf("stop geckodriver: %w", err))
			}
		}
		if d.profile != nil {
			if err := d.profile.Cleanup(); err != nil {
				errList = append(errList, err)
			}
		}
		d.quitErr = errors.Join(errList...)
		if d.quitErr != nil {
			d.logger.Warn("firefox driver quit with errors", logging.Field{Key: "error", Value: d.quitErr.Error()})
			return
		}
		d.logger.Debug("firefox driver quit")
	})
	return d.quitErr
}
