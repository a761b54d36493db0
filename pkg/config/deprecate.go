package config

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Jakobo/eyeglass/pkg/semver"
)

// IgnoreAll as IgnoreDeprecations silences every deprecation
const IgnoreAll = "all"

// Deprecator reports use of deprecated options. Each message is logged once.
type Deprecator struct {
	ignore string
	log    *logrus.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// NewDeprecator creates a deprecator silencing everything deprecated at or
// before ignore
func NewDeprecator(ignore string, log *logrus.Logger) *Deprecator {
	if log == nil {
		log = logrus.New()
	}
	return &Deprecator{ignore: ignore, log: log, warned: make(map[string]bool)}
}

// Deprecate warns that something deprecated in version from will be removed
// in version to. It reports whether the warning was logged.
func (d *Deprecator) Deprecate(from, to, message string) bool {
	if d.ignored(from) {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.warned[message] {
		return false
	}
	d.warned[message] = true

	d.log.WithFields(logrus.Fields{
		"deprecated": from,
		"removed":    to,
	}).Warnf("[eyeglass:deprecation] (deprecated in %s, will be removed in %s) %s", from, to, message)
	return true
}

func (d *Deprecator) ignored(from string) bool {
	switch d.ignore {
	case "":
		return false
	case IgnoreAll:
		return true
	}
	ignore, err := semver.ParseVersion(d.ignore)
	if err != nil {
		return false
	}
	since, err := semver.ParseVersion(from)
	if err != nil {
		return false
	}
	return semver.Compare(since, ignore) <= 0
}
