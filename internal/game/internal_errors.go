package game

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/logging"
)

// internalReporter сообщает об ошибках, которые возникли не по вине клиента:
// каскад соседей, тик ломания, обработчики модов. В строгом режиме паникует.
type internalReporter struct {
	strict bool
	logger *logging.Logger
	count  func()
}

func (r internalReporter) report(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if r.count != nil {
		r.count()
	}
	r.logger.Error("внутренняя ошибка: %s", msg)
	if r.strict {
		panic("внутренняя ошибка: " + msg)
	}
}
