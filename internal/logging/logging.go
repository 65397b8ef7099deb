package logging

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to out at the given level ("debug", "info",
// ...). Colors are disabled when color.NoColor is set, which fatih/color
// does automatically for non-terminals and NO_COLOR.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	f := NewFormatter()
	f.DisableColors = color.NoColor
	log.SetFormatter(f)
	return log, nil
}
